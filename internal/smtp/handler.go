package smtp

import (
	"github.com/sirupsen/logrus"

	"mailfeed/internal/models"
	"mailfeed/internal/store"
)

// Handler is the sink for completed message records. It is chosen once at
// startup and invoked only by the consumer goroutine.
type Handler interface {
	Handle(email *models.Email) error
}

// DebugHandler logs each record and always succeeds. Used in debug mode when
// no store is opened.
type DebugHandler struct{}

func (DebugHandler) Handle(email *models.Email) error {
	logrus.Infof("Received email: %+v", email)
	return nil
}

// StoreHandler persists each record to the message store.
type StoreHandler struct {
	store *store.Store
}

func NewStoreHandler(s *store.Store) *StoreHandler {
	return &StoreHandler{store: s}
}

func (h *StoreHandler) Handle(email *models.Email) error {
	return h.store.Insert(email)
}
