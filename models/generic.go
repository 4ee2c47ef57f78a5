package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record with the requested ID does not exist.
var ErrNotFound = errors.New("record not found")

// Generic holds the columns every table shares.
type Generic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
