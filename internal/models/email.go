package models

import (
	"time"
)

// Email represents one received message. It is created once by the parser
// and never mutated afterwards.
//
// MessageID is the value handed out by the server's in-process counter when
// the client finished the data phase. It is strictly increasing within one
// process lifetime but resets on restart, so it is stored as ordinary data;
// StoreID is the durable, store-assigned key and defines insertion order.
type Email struct {
	StoreID     uint      `json:"store_id" gorm:"column:store_id;primaryKey;autoIncrement"`
	MessageID   uint64    `json:"message_id" gorm:"column:message_id;not null"`
	ReceivedAt  time.Time `json:"received_at" gorm:"not null"`
	FromAddress string    `json:"from_address" gorm:"type:text;not null"`
	ToAddress   string    `json:"to_address" gorm:"type:text;not null;index"`
	Subject     string    `json:"subject" gorm:"type:text;not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
}

// TableName specifies the table name for Email
func (Email) TableName() string {
	return "emails"
}
