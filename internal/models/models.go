package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

type Artist struct {
	gorm.Model
	Name string `gorm:"not null"` // Отображаемое имя исполнителя
}

type Album struct {
	gorm.Model
	Title    string `gorm:"not null"`
	ArtistID uint   `gorm:"index;not null"`
	Artist   Artist `gorm:"foreignKey:ArtistID"`
}

type Song struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Duration    int    `gorm:"not null"` // Длительность трека в секундах
	AudioPath   string `gorm:"not null"` // Путь к аудиофайлу относительно сервера либо полный URL
	ImagePath   string // Путь к обложке; пустое значение — используется заглушка
	ArtistID    uint   `gorm:"index;not null"`
	Artist      Artist `gorm:"foreignKey:ArtistID"`
	FeaturedIDs string // Сериализованный список ID приглашённых исполнителей, например "[2,5]"
	AlbumID     *uint  `gorm:"index"` // Ссылка на альбом (nil — сингл без альбома)
	Album       *Album `gorm:"foreignKey:AlbumID"`
}
