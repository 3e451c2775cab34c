package parser

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"mailfeed/internal/models"
)

// Parse decodes one raw message transmission into an Email record. The id is
// the value allocated by the server's counter for this transmission.
//
// A payload that is not a parseable MIME message, or that lacks a From, To,
// or Subject header, yields no record. By the time this runs the client has
// already been promised success, so the caller logs the error and moves on;
// nothing is propagated back to the protocol layer.
func Parse(raw []byte, id uint64) (*models.Email, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	defer mr.Close()

	froms, err := mr.Header.AddressList("From")
	if err != nil || len(froms) == 0 {
		return nil, fmt.Errorf("message has no parseable From address")
	}
	tos, err := mr.Header.AddressList("To")
	if err != nil || len(tos) == 0 {
		return nil, fmt.Errorf("message has no parseable To address")
	}
	if !mr.Header.Has("Subject") {
		return nil, fmt.Errorf("message has no Subject")
	}
	subject, err := mr.Header.Subject()
	if err != nil {
		return nil, fmt.Errorf("failed to decode Subject: %w", err)
	}

	content, err := htmlBody(mr)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}

	return &models.Email{
		MessageID:   id,
		ReceivedAt:  time.Now().UTC(),
		FromAddress: froms[0].Address,
		ToAddress:   tos[0].Address,
		Subject:     subject,
		Content:     content,
	}, nil
}

// htmlBody returns the decoded body of the first text/html part. When the
// message carries none, the first text/plain part is rendered to HTML
// instead; a message with neither yields the empty string.
func htmlBody(mr *mail.Reader) (string, error) {
	plain := ""
	havePlain := false

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			if havePlain {
				return textToHTML(plain), nil
			}
			return "", nil
		}
		if err != nil {
			return "", err
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		t, _, err := h.ContentType()
		if err != nil {
			continue
		}
		switch t {
		case "text/html":
			body, err := io.ReadAll(p.Body)
			if err != nil {
				return "", err
			}
			return string(body), nil
		case "text/plain":
			if havePlain {
				continue
			}
			body, err := io.ReadAll(p.Body)
			if err != nil {
				return "", err
			}
			plain = string(body)
			havePlain = true
		}
	}
}

// textToHTML escapes a plain-text body and turns line breaks into <br/> tags
// so it renders in a feed reader.
func textToHTML(s string) string {
	escaped := html.EscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return strings.ReplaceAll(escaped, "\n", "<br/>")
}
