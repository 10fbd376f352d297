package model

import (
	"time"

	"gorm.io/datatypes"
)

type Conversation struct {
	Cid       string `gorm:"primaryKey;size:40"`
	Title     string `gorm:"size:160"`
	Payload   datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (Conversation) TableName() string {
	return "conversations"
}
