package mailer

import (
	"fmt"
	"sync"
	"time"
)

// transcriptTTL bounds how long a debug transcript stays inspectable. The
// transcript is operator tooling, not part of the delivery report.
const transcriptTTL = 5 * time.Minute

// Transcript captures one send attempt for the verification endpoint.
type Transcript struct {
	Time      time.Time `json:"time"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Auth      bool      `json:"auth"`
	Username  string    `json:"username"` // masked
	From      string    `json:"from"`
	Result    string    `json:"result"` // OK or FAIL
	LastError string    `json:"last_error,omitempty"`
	Lines     []string  `json:"lines,omitempty"`
}

// debugf appends a protocol line when the configured level reaches the
// line's own level.
func (t *Transcript) debugf(configured, level int, format string, args ...any) {
	if configured >= level {
		t.Lines = append(t.Lines, fmt.Sprintf(format, args...))
	}
}

// TranscriptStore holds recent transcripts in memory and expires them.
type TranscriptStore struct {
	mu      sync.Mutex
	entries []*Transcript
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{}
}

func (s *TranscriptStore) Record(t *Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(time.Now())
	s.entries = append(s.entries, t)
}

// Recent returns the unexpired transcripts, newest last.
func (s *TranscriptStore) Recent() []*Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(time.Now())
	out := make([]*Transcript, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *TranscriptStore) prune(now time.Time) {
	kept := s.entries[:0]
	for _, t := range s.entries {
		if now.Sub(t.Time) < transcriptTTL {
			kept = append(kept, t)
		}
	}
	s.entries = kept
}
