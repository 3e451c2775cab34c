package store

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailfeed/internal/models"
)

// Store persists received messages in a single SQLite file. Writes are
// serialized by the server's single consumer goroutine; the store itself
// holds no write mutex.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the message store at path and runs
// migrations. An error here is fatal: the process cannot serve without a
// working store.
func Open(path string) (*Store, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&models.Email{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert appends one message record. The record's MessageID is recorded as
// ordinary data; the store assigns its own StoreID.
func (s *Store) Insert(email *models.Email) error {
	if result := s.db.Create(email); result.Error != nil {
		return fmt.Errorf("failed to insert email: %w", result.Error)
	}
	return nil
}

// LatestPerSubject returns at most limit records for the given recipient,
// one per distinct subject: the most recently received record among all
// records sharing that subject. Results are ordered by store id ascending,
// so a subject thread keeps the position of when it first became visible,
// not of when its latest message arrived.
func (s *Store) LatestPerSubject(toAddress string, limit int) ([]models.Email, error) {
	var emails []models.Email

	result := s.db.Raw(`
SELECT store_id, message_id, received_at, from_address, to_address, subject, content
FROM (
	SELECT *,
	ROW_NUMBER() OVER (PARTITION BY subject ORDER BY received_at DESC, store_id DESC) AS rn
	FROM emails
	WHERE to_address = ?
)
WHERE rn = 1
ORDER BY store_id
LIMIT ?`, toAddress, limit).Scan(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query latest per subject: %w", result.Error)
	}

	return emails, nil
}

// Count returns the total number of stored messages.
func (s *Store) Count() (int64, error) {
	var n int64
	if result := s.db.Model(&models.Email{}).Count(&n); result.Error != nil {
		return 0, fmt.Errorf("failed to count emails: %w", result.Error)
	}
	return n, nil
}
