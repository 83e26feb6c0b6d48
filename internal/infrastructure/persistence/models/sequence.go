package models

import (
	"time"

	"github.com/google/uuid"
)

// SequenceModel is one document counter. Next is always the largest value
// handed out so far plus one.
type SequenceModel struct {
	Scope     string     `gorm:"type:varchar(36);primaryKey"`
	Key       string     `gorm:"column:key;type:varchar(64);primaryKey"`
	TenantID  *uuid.UUID `gorm:"type:uuid;index"`
	Next      int64      `gorm:"column:next;not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "sequences"
}
