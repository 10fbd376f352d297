package model

import (
	"time"

	"gorm.io/datatypes"
)

type Paper struct {
	Id           string `gorm:"primaryKey;size:64"`
	Title        string `gorm:"not null;index"`
	Authors      datatypes.JSON
	Venue        string `gorm:"size:120;index"`
	Year         int    `gorm:"index"`
	Rating       float64
	Decision     string `gorm:"size:80;index"`
	Presentation string `gorm:"size:80"`
	Keywords     datatypes.JSON
	Abstract     string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Paper) TableName() string {
	return "papers"
}
