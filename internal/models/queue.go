package models

import (
	"gorm.io/gorm"
)

type QueueEntry struct {
	gorm.Model
	UserID    uint `gorm:"index;not null"`
	SongID    uint `gorm:"index;not null"`
	Position  int  `gorm:"index;not null"` // Позиция в очереди, плотная нумерация с 1 без пропусков
	IsCurrent bool `gorm:"default:false"`  // Флаг текущего трека; не более одного на пользователя
}

type HistoryEntry struct {
	gorm.Model
	UserID uint `gorm:"index;not null"`
	SongID uint `gorm:"not null"`
}
