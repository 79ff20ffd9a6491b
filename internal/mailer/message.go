package mailer

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Embed is an image file attached inline and referenced from the HTML body
// via its Content-ID.
type Embed struct {
	Path string
	CID  string
}

// NewEmbed derives a stable Content-ID from the file path, so the same file
// always produces the same "cid:" reference across sends.
func NewEmbed(path string) *Embed {
	return &Embed{
		Path: path,
		CID:  fmt.Sprintf("featured-%x", md5.Sum([]byte(path))),
	}
}

// Src returns the value to place in the HTML img tag.
func (e *Embed) Src() string {
	return "cid:" + e.CID
}

// PrepareImage decides how the featured image reaches the recipient: a local
// file that exists is embedded by CID, otherwise the absolute URL is used,
// otherwise there is no image.
func PrepareImage(path, url string) (string, *Embed) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			e := NewEmbed(path)
			return e.Src(), e
		}
	}
	return url, nil
}

// buildMessage assembles the full RFC 5322 message. With an embed it becomes
// multipart/related so mail clients resolve the cid: reference offline.
func buildMessage(fromName, fromEmail, to, subject, htmlBody string, embed *Embed) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), fromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if embed == nil {
		buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		buf.WriteString("\r\n")
		buf.WriteString(htmlBody)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	data, err := os.ReadFile(embed.Path)
	if err != nil {
		return nil, fmt.Errorf("read embedded image: %w", err)
	}
	imgType := mime.TypeByExtension(filepath.Ext(embed.Path))
	if imgType == "" {
		imgType = "image/jpeg"
	}

	const boundary = "nl-related-boundary"
	fmt.Fprintf(&buf, "Content-Type: multipart/related; boundary=%q\r\n", boundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: %s; name=%q\r\n", imgType, filepath.Base(embed.Path))
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-ID: <%s>\r\n", embed.CID)
	fmt.Fprintf(&buf, "Content-Disposition: inline; filename=%q\r\n", filepath.Base(embed.Path))
	buf.WriteString("\r\n")
	writeBase64Wrapped(&buf, data)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

// writeBase64Wrapped encodes data with lines kept under the 76-char limit.
func writeBase64Wrapped(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	const lineLen = 76
	for len(encoded) > 0 {
		n := lineLen
		if n > len(encoded) {
			n = len(encoded)
		}
		buf.WriteString(encoded[:n])
		buf.WriteString("\r\n")
		encoded = encoded[n:]
	}
}

// maskSecret hides the middle of a credential for the debug transcript.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("•", len(s))
	}
	return s[:2] + strings.Repeat("•", len(s)-4) + s[len(s)-2:]
}
