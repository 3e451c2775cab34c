package smtp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"mailfeed/internal/config"
	"mailfeed/internal/metrics"
	"mailfeed/internal/models"
)

// MaxMessageBytes caps how much of a data phase is accumulated before the
// transmission is cut off and handed to the parser.
const MaxMessageBytes = 10_000_000

// queueSize is the dispatch queue buffer. A producer stalls instead of
// growing memory once this many messages are waiting on the consumer.
const queueSize = 1024

// Server accepts SMTP connections and runs one Session per connection. It
// owns the process-wide message id counter, the dispatch queue, and the
// single consumer goroutine that serializes handoff to the Handler.
type Server struct {
	addr     string
	hostname string
	strict   bool
	handler  Handler
	metrics  *metrics.Metrics

	lastID       atomic.Uint64
	queue        chan *models.Email
	listener     net.Listener
	consumerDone chan struct{}

	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

// NewServer creates a new SMTP server. The handler is fixed for the lifetime
// of the server; there is no runtime switching.
func NewServer(cfg *config.Config, handler Handler, m *metrics.Metrics) *Server {
	return &Server{
		addr:         fmt.Sprintf("%s:%d", cfg.SMTP.BindAddress, cfg.SMTP.Port),
		hostname:     cfg.SMTP.Hostname,
		strict:       cfg.StrictParse,
		handler:      handler,
		metrics:      m,
		queue:        make(chan *models.Email, queueSize),
		consumerDone: make(chan struct{}),
	}
}

// ListenAndServe binds the configured address and serves until the listener
// is closed.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}
	logrus.Infof("Mail server listening on %s", s.addr)
	return s.Serve(l)
}

// Serve starts the consumer goroutine and runs the accept loop on l. Accept
// failures are logged and the loop continues; only a closed listener ends it.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	go s.consume()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logrus.Errorf("Failed to accept connection: %v", err)
			continue
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			continue
		}
		s.sessions.Add(1)
		s.mu.Unlock()

		if s.metrics != nil {
			s.metrics.ConnectionsAccepted.Inc()
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting connections, waits for running sessions to finish,
// and shuts the consumer down after it drains the queue. A session caught
// mid-transmission still gets its message through.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	l := s.listener
	s.mu.Unlock()

	var err error
	if l != nil {
		err = l.Close()
	}
	s.sessions.Wait()
	close(s.queue)
	<-s.consumerDone
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.sessions.Done()
	defer conn.Close()

	if addr := conn.RemoteAddr(); addr != nil {
		logrus.Debugf("Connection from %s", addr)
	}

	sess := newSession(conn, s)
	if err := sess.run(); err != nil {
		logrus.Warnf("Failed to handle client: %v", err)
	}
}

// nextMessageID allocates the next process-wide message id. Ids start at 1,
// are strictly increasing within one process lifetime, and reset on restart.
func (s *Server) nextMessageID() uint64 {
	return s.lastID.Add(1)
}

func (s *Server) enqueue(email *models.Email) {
	s.queue <- email
	if s.metrics != nil {
		s.metrics.MessagesQueued.Inc()
		s.metrics.QueueDepth.Inc()
	}
}

// consume drains the dispatch queue one record at a time. Being the only
// reader is what serializes writes to the store; handler failures drop the
// message and the loop keeps going.
func (s *Server) consume() {
	defer close(s.consumerDone)

	for email := range s.queue {
		if s.metrics != nil {
			s.metrics.QueueDepth.Dec()
		}
		if err := s.handler.Handle(email); err != nil {
			logrus.Errorf("Failed to process email %d: %v", email.MessageID, err)
			if s.metrics != nil {
				s.metrics.MessagesDropped.Inc()
			}
			continue
		}
		logrus.Infof("Successfully handled email %d from %s to %s",
			email.MessageID, email.FromAddress, email.ToAddress)
		if s.metrics != nil {
			s.metrics.MessagesStored.Inc()
		}
	}
}
