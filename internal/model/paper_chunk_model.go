package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type PaperChunk struct {
	Id         string `gorm:"primaryKey;size:96"`
	PaperId    string `gorm:"size:64;not null;index"`
	Kind       string `gorm:"size:16;not null;index"`
	ChunkIndex int
	Text       string           `gorm:"type:text"`
	Embedding  *pgvector.Vector `gorm:"type:vector(768)"` // null when the corpus was loaded without an embedder
	CreatedAt  time.Time

	// Relationships
	Paper *Paper `gorm:"foreignKey:PaperId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (PaperChunk) TableName() string {
	return "paper_chunks"
}
