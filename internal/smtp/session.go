package smtp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"mailfeed/internal/parser"
)

// Session drives one connection through the mail transaction. Exactly one
// message is transacted per connection: after the data phase the session
// closes regardless of whether the client sends QUIT.
type Session struct {
	conn   net.Conn
	reader *bufio.Reader
	srv    *Server
}

func newSession(conn net.Conn, srv *Server) *Session {
	return &Session{
		conn:   conn,
		reader: bufio.NewReader(conn),
		srv:    srv,
	}
}

// run sends the greeting and processes command lines until the transaction
// completes, the peer disconnects, or an error ends the session. A returned
// error is fatal to this connection only.
func (s *Session) run() error {
	if err := s.reply("220 %s Simple Mail Transfer Service Ready", s.srv.hostname); err != nil {
		return fmt.Errorf("failed to send greeting: %w", err)
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Peer closed the connection.
				return nil
			}
			return fmt.Errorf("failed to read from connection: %w", err)
		}

		command := strings.ToUpper(strings.TrimSpace(line))

		switch {
		case strings.HasPrefix(command, "HELO"), strings.HasPrefix(command, "EHLO"):
			if err := s.reply("250 Hello"); err != nil {
				return err
			}
		case strings.HasPrefix(command, "MAIL FROM:"):
			if err := s.reply("250 Ok"); err != nil {
				return err
			}
		case strings.HasPrefix(command, "RCPT TO:"):
			if err := s.reply("250 Ok"); err != nil {
				return err
			}
		case command == "DATA":
			return s.data()
		case command == "QUIT":
			return s.reply("221 Bye")
		default:
			if err := s.reply("500 Unknown command"); err != nil {
				return err
			}
			return fmt.Errorf("unknown command: %s", command)
		}
	}
}

// data runs the message transfer: accumulate lines until the dot terminator
// or the size cap, stamp the message with the next id, parse, enqueue. In
// the default mode the client is told the message is queued before the parse
// outcome is known, so an unparseable payload is silently discarded; strict
// mode parses first and rejects with a 554 instead.
func (s *Session) data() error {
	if err := s.reply("354 Start mail input; end with <CRLF>.<CRLF>"); err != nil {
		return fmt.Errorf("failed to start mail input: %w", err)
	}

	var data []byte
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return fmt.Errorf("failed to read mail data: %w", err)
			}
			data = append(data, line...)
			break
		}
		if bytes.Equal(line, []byte(".\r\n")) {
			break
		}
		if len(data) >= MaxMessageBytes {
			break
		}
		data = append(data, line...)
	}

	id := s.srv.nextMessageID()

	email, err := parser.Parse(data, id)
	if err != nil {
		logrus.Warnf("Discarding message %d: %v", id, err)
		if s.srv.metrics != nil {
			s.srv.metrics.ParseFailures.Inc()
		}
		if s.srv.strict {
			if err := s.reply("554 Transaction failed"); err != nil {
				return err
			}
			return s.reply("221 Bye")
		}
	} else {
		s.srv.enqueue(email)
	}

	if err := s.reply("250 Ok: queued as %d", id); err != nil {
		return fmt.Errorf("failed to confirm queueing: %w", err)
	}
	return s.reply("221 Bye")
}

func (s *Session) reply(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(s.conn, format+"\r\n", args...)
	return err
}
