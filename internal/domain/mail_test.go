package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOutboundMail(t *testing.T) {
	receivedAt := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.FixedZone("CET", 3600))
	settings := MailSettings{From: "site@traguardo.fr", To: "contact@traguardo.fr", SubjectPrefix: "Traguardo"}

	t.Run("Builds subject, envelope and both bodies", func(t *testing.T) {
		s := ContactSubmission{Name: "Marie Dupont", Email: "marie@example.com", Message: "Bonjour,\nà bientôt"}
		meta := NewRequestMeta("203.0.113.7", "Mozilla/5.0", receivedAt)

		mail := NewOutboundMail(s, meta, settings)

		assert.Equal(t, "site@traguardo.fr", mail.From)
		assert.Equal(t, "contact@traguardo.fr", mail.To)
		assert.Equal(t, "marie@example.com", mail.ReplyTo)
		assert.Equal(t, "[Traguardo] Nouveau message - Marie Dupont", mail.Subject)
		assert.Contains(t, mail.Text, "Nom: Marie Dupont\nEmail: marie@example.com")
		assert.Contains(t, mail.Text, "Message:\nBonjour,\nà bientôt")
		assert.Contains(t, mail.Text, "Date UTC: 2026-03-14T08:26:53.589Z")
		assert.Contains(t, mail.Text, "IP: 203.0.113.7")
		assert.Contains(t, mail.HTML, "<p>Bonjour,<br/>à bientôt</p>")
		assert.Contains(t, mail.HTML, "<p><strong>User-Agent:</strong> Mozilla/5.0</p>")
	})

	t.Run("Escapes every interpolated value in the HTML body", func(t *testing.T) {
		s := ContactSubmission{
			Name:    `<b>Eve</b>`,
			Email:   `eve"@example.com`,
			Message: "<script>alert(1)</script>",
		}
		meta := NewRequestMeta("", `<img src=x onerror="y">`, receivedAt)

		mail := NewOutboundMail(s, meta, settings)

		assert.Contains(t, mail.HTML, "&lt;script&gt;alert(1)&lt;/script&gt;")
		assert.NotContains(t, mail.HTML, "<script>")
		assert.Contains(t, mail.HTML, "&lt;b&gt;Eve&lt;/b&gt;")
		assert.Contains(t, mail.HTML, "eve&quot;@example.com")
		assert.Contains(t, mail.HTML, "&lt;img src=x onerror=&quot;y&quot;&gt;")
		assert.Contains(t, mail.HTML, "<p><strong>IP:</strong> n/a</p>")
		// 纯文本正文不转义
		assert.Contains(t, mail.Text, "<script>alert(1)</script>")
	})

	t.Run("Is deterministic", func(t *testing.T) {
		s := ContactSubmission{Name: "Marie", Email: "marie@example.com", Message: validMessage}
		meta := NewRequestMeta("198.51.100.1", "curl/8", receivedAt)
		assert.Equal(t, NewOutboundMail(s, meta, settings), NewOutboundMail(s, meta, settings))
	})

	t.Run("Subject never carries line breaks", func(t *testing.T) {
		s := ContactSubmission{Name: "Marie\r\nBcc: victim@example.com", Email: "marie@example.com", Message: validMessage}
		mail := NewOutboundMail(s, NewRequestMeta("", "", receivedAt), settings)
		assert.False(t, strings.ContainsAny(mail.Subject, "\r\n"))
	})
}
