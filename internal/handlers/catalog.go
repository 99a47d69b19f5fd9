package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"musicbox/internal/models"
	"musicbox/internal/queue"
	"musicbox/internal/response"
	"musicbox/internal/storage"

	"github.com/gin-gonic/gin"
)

// SongListResponse содержит список треков каталога
type SongListResponse struct {
	Songs []queue.PlayableTrack `json:"songs"`
}

// GetSongsHandler обрабатывает запрос на получение списка треков
// @Summary		Список треков
// @Description	Возвращает треки каталога с разрешёнными метаданными
// @Tags			catalog
// @Produce		json
// @Success		200	{object}	SongListResponse	"Треки каталога"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/songs [get]
func GetSongsHandler(c *gin.Context) {
	var songs []models.Song
	if err := storage.DB.Order("id ASC").Find(&songs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки треков",
			Details: err.Error(),
		})
		return
	}

	origin := requestOrigin(c)
	tracks := make([]queue.PlayableTrack, 0, len(songs))
	for _, song := range songs {
		track, err := queue.Resolve(storage.DB, song.ID, origin)
		if err != nil {
			// Пропускаем только исчезнувший из каталога трек
			if errors.Is(err, queue.ErrTrackNotFound) {
				continue
			}
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка загрузки треков",
				Details: err.Error(),
			})
			return
		}
		tracks = append(tracks, *track)
	}

	c.JSON(http.StatusOK, SongListResponse{Songs: tracks})
}

// GetSongHandler обрабатывает запрос на получение одного трека
// @Summary		Трек по ID
// @Description	Возвращает метаданные одного трека каталога
// @Tags			catalog
// @Produce		json
// @Param			id	path		string	true	"ID трека"
// @Success		200	{object}	queue.PlayableTrack	"Метаданные трека"
// @Failure		400	{object}	response.ErrorResponse	"Неверный идентификатор трека (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Трек не найден (TRACK_NOT_FOUND)"
// @Router			/songs/{id} [get]
func GetSongHandler(c *gin.Context) {
	songID, err := strconv.Atoi(c.Param("id"))
	if err != nil || songID <= 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор трека",
		})
		return
	}

	track, err := queue.Resolve(storage.DB, uint(songID), requestOrigin(c))
	if err != nil {
		queueError(c, err)
		return
	}

	c.JSON(http.StatusOK, track)
}
