package mailer

import (
	"testing"
	"time"
)

func TestTranscriptStoreExpires(t *testing.T) {
	store := NewTranscriptStore()

	stale := &Transcript{Time: time.Now().Add(-6 * time.Minute), To: "old@example.com"}
	fresh := &Transcript{Time: time.Now(), To: "new@example.com"}
	store.Record(stale)
	store.Record(fresh)

	recent := store.Recent()
	if len(recent) != 1 {
		t.Fatalf("expected 1 unexpired transcript, got %d", len(recent))
	}
	if recent[0].To != "new@example.com" {
		t.Errorf("wrong transcript survived: %+v", recent[0])
	}
}

func TestTranscriptDebugLevels(t *testing.T) {
	tr := &Transcript{}
	tr.debugf(0, 1, "hidden")
	if len(tr.Lines) != 0 {
		t.Errorf("level 0 must record nothing")
	}

	tr.debugf(1, 1, "client line")
	tr.debugf(1, 2, "server line")
	if len(tr.Lines) != 1 || tr.Lines[0] != "client line" {
		t.Errorf("level 1 must record only client lines, got %v", tr.Lines)
	}

	tr = &Transcript{}
	tr.debugf(2, 1, "client line")
	tr.debugf(2, 2, "server line")
	if len(tr.Lines) != 2 {
		t.Errorf("level 2 must record both, got %v", tr.Lines)
	}
}
