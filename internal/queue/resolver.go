package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"musicbox/internal/models"
	"musicbox/internal/storage"

	"gorm.io/gorm"
)

// PlaceholderImagePath — обложка по умолчанию для треков без изображения
const PlaceholderImagePath = "/static/img/placeholder.png"

var ctx = context.Background()

// PlayableTrack — денормализованные метаданные трека, готовые к показу и воспроизведению
type PlayableTrack struct {
	SongID          uint     `json:"song_id"`
	Title           string   `json:"title"`
	Duration        int      `json:"duration"`
	AudioURL        string   `json:"audio_url"`
	ImageURL        string   `json:"image_url"`
	Artist          string   `json:"artist"`
	FeaturedArtists []string `json:"featured_artists"`
	Album           *string  `json:"album"`
}

// QueueItem — запись очереди вместе с разрешёнными метаданными трека
type QueueItem struct {
	QueueID   uint `json:"queue_id"`
	Position  int  `json:"position"`
	IsCurrent bool `json:"is_current"`
	PlayableTrack
}

// NewQueueItem соединяет запись очереди с метаданными её трека
func NewQueueItem(entry models.QueueEntry, track PlayableTrack) QueueItem {
	return QueueItem{
		QueueID:       entry.ID,
		Position:      entry.Position,
		IsCurrent:     entry.IsCurrent,
		PlayableTrack: track,
	}
}

// Resolve возвращает полные метаданные трека с абсолютными URL относительно origin.
// Единственная ошибка бизнес-уровня — ErrTrackNotFound.
func Resolve(db *gorm.DB, songID uint, origin string) (*PlayableTrack, error) {
	track, err := resolveStored(db, songID)
	if err != nil {
		return nil, err
	}
	track.AudioURL = AbsoluteURL(origin, track.AudioURL)
	track.ImageURL = AbsoluteURL(origin, track.ImageURL)
	return track, nil
}

// resolveStored собирает метаданные с путями в том виде, в каком они хранятся
// (без привязки к origin запроса), кэшируя результат в Redis.
func resolveStored(db *gorm.DB, songID uint) (*PlayableTrack, error) {
	cacheKey := fmt.Sprintf("song_meta:%d", songID)

	// Проверка кэша: при любой ошибке Redis просто идём в базу
	if storage.RedisClient != nil {
		cached, err := storage.RedisClient.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var track PlayableTrack
			if err := json.Unmarshal([]byte(cached), &track); err == nil {
				return &track, nil
			}
		}
	}

	var song models.Song
	if err := db.Preload("Artist").Preload("Album").First(&song, songID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackNotFound
		}
		return nil, err
	}

	imagePath := song.ImagePath
	if imagePath == "" {
		imagePath = PlaceholderImagePath
	}

	var album *string
	if song.Album != nil {
		album = &song.Album.Title
	}

	track := PlayableTrack{
		SongID:          song.ID,
		Title:           song.Title,
		Duration:        song.Duration,
		AudioURL:        song.AudioPath,
		ImageURL:        imagePath,
		Artist:          song.Artist.Name,
		FeaturedArtists: resolveFeaturedNames(db, song.FeaturedIDs),
		Album:           album,
	}

	if storage.RedisClient != nil {
		if data, err := json.Marshal(track); err == nil {
			storage.RedisClient.Set(ctx, cacheKey, data, 10*time.Minute)
		}
	}

	return &track, nil
}

// ParseFeaturedIDs разбирает сериализованный список ID приглашённых исполнителей.
// Битая сериализация молча считается пустым списком — поведение сохранено намеренно.
func ParseFeaturedIDs(raw string) []uint {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

// resolveFeaturedNames превращает список ID в имена исполнителей, сохраняя порядок.
// Несуществующие ID пропускаются.
func resolveFeaturedNames(db *gorm.DB, raw string) []string {
	ids := ParseFeaturedIDs(raw)
	if len(ids) == 0 {
		return []string{}
	}

	var artists []models.Artist
	if err := db.Where("id IN ?", ids).Find(&artists).Error; err != nil {
		return []string{}
	}

	byID := make(map[uint]string, len(artists))
	for _, a := range artists {
		byID[a.ID] = a.Name
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// AbsoluteURL превращает относительный путь в абсолютный URL.
// Уже абсолютные значения возвращаются без изменений.
func AbsoluteURL(origin, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path
}
