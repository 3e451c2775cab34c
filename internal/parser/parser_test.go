package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "From: Alice <alice@example.com>\r\n" +
	"To: feed@example.com\r\n" +
	"Subject: Weekly digest\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"sep\"\r\n" +
	"\r\n" +
	"--sep\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"plain text version\r\n" +
	"--sep\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<h1>Weekly digest</h1>\r\n" +
	"--sep--\r\n"

func TestParseMultipartMessage(t *testing.T) {
	before := time.Now().UTC()
	email, err := Parse([]byte(multipartMessage), 42)
	require.NoError(t, err)
	require.NotNil(t, email)

	assert.EqualValues(t, 42, email.MessageID)
	assert.Equal(t, "alice@example.com", email.FromAddress)
	assert.Equal(t, "feed@example.com", email.ToAddress)
	assert.Equal(t, "Weekly digest", email.Subject)
	assert.Contains(t, email.Content, "<h1>Weekly digest</h1>")
	assert.NotContains(t, email.Content, "plain text version")
	assert.False(t, email.ReceivedAt.Before(before))
}

func TestParsePlainTextRenderedAsHTML(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: feed@example.com\r\n" +
		"Subject: no html here\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"1 < 2 & counting\r\n" +
		"second line\r\n"

	email, err := Parse([]byte(raw), 1)
	require.NoError(t, err)
	assert.Equal(t, "1 &lt; 2 &amp; counting<br/>second line<br/>", email.Content)
	assert.Equal(t, "no html here", email.Subject)
}

func TestParseEmptySubjectAccepted(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: feed@example.com\r\n" +
		"Subject: \r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	email, err := Parse([]byte(raw), 1)
	require.NoError(t, err)
	assert.Equal(t, "", email.Subject)
}

func TestParseMissingSubject(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: feed@example.com\r\n" +
		"\r\n" +
		"body\r\n"

	email, err := Parse([]byte(raw), 1)
	assert.Error(t, err)
	assert.Nil(t, email)
}

func TestParseMissingFrom(t *testing.T) {
	raw := "To: feed@example.com\r\n" +
		"Subject: hi\r\n" +
		"\r\n" +
		"body\r\n"

	email, err := Parse([]byte(raw), 1)
	assert.Error(t, err)
	assert.Nil(t, email)
}

func TestParseGarbage(t *testing.T) {
	email, err := Parse([]byte("this is not a mail message"), 1)
	assert.Error(t, err)
	assert.Nil(t, email)
}

func TestParseDecodesEncodedSubject(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: feed@example.com\r\n" +
		"Subject: =?utf-8?q?caf=C3=A9_news?=\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	email, err := Parse([]byte(raw), 1)
	require.NoError(t, err)
	assert.Equal(t, "café news", email.Subject)
}

func TestParseTakesFirstAddresses(t *testing.T) {
	raw := "From: a@example.com, b@example.com\r\n" +
		"To: c@example.com, d@example.com\r\n" +
		"Subject: many recipients\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		strings.Repeat("x", 10) + "\r\n"

	email, err := Parse([]byte(raw), 1)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email.FromAddress)
	assert.Equal(t, "c@example.com", email.ToAddress)
}
