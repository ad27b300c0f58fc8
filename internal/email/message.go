package email

import (
	"encoding/base64"
	"strings"

	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

// MaxSubjectLen is the longest subject accepted for sending, the RFC 5322 line limit.
const MaxSubjectLen = 998

// MailtoURL builds the link that opens the user's mail app with the draft filled in.
func MailtoURL(to string, d entity.Draft) string {
	return "mailto:" + to + "?subject=" + encodeURIComponent(d.Subject) + "&body=" + encodeURIComponent(d.Body)
}

// BuildMIME renders a plain-text message with a base64 encoded-word subject so
// non-ASCII names survive transport.
func BuildMIME(to string, d entity.Draft) string {
	subject := "=?utf-8?B?" + base64.StdEncoding.EncodeToString([]byte(d.Subject)) + "?="
	return strings.Join([]string{
		"To: " + to,
		"Subject: " + subject,
		"Content-Type: text/plain; charset=utf-8",
		"MIME-Version: 1.0",
		"",
		d.Body,
	}, "\n")
}

// EncodeRaw produces the unpadded base64url form the Gmail API expects in "raw".
func EncodeRaw(message string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(message))
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent escapes everything but A-Z a-z 0-9 and -_.!~*'(), matching
// what mail clients expect in mailto query values (spaces become %20, not +).
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
