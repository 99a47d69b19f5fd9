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

type AddToQueueRequest struct {
	SongID   uint `json:"song_id" binding:"required"`
	Position int  `json:"position"` // Необязательная позиция вставки; 0 или меньше — в конец
	PlayNow  bool `json:"play_now"` // Сразу сделать трек текущим
}

type UpdateCurrentRequest struct {
	SongID uint `json:"song_id" binding:"required"`
}

type NextRequest struct {
	FromEnded bool `json:"fromEnded"` // true — переход по естественному окончанию трека
}

// QueueItemResponse содержит добавленную запись очереди
type QueueItemResponse struct {
	QueueItem queue.QueueItem `json:"queue_item"`
}

// QueueListResponse содержит очередь пользователя по порядку позиций
type QueueListResponse struct {
	Queue []queue.QueueItem `json:"queue"`
}

// CurrentQueueResponse содержит текущий трек (null — очередь пуста) и обновлённую очередь
type CurrentQueueResponse struct {
	CurrentSong *queue.QueueItem  `json:"currentSong"`
	Queue       []queue.QueueItem `json:"queue"`
}

// requestOrigin восстанавливает origin запроса для абсолютизации URL медиафайлов
func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// loadQueue загружает очередь пользователя с разрешёнными метаданными треков
func loadQueue(c *gin.Context, userID uint) ([]queue.QueueItem, error) {
	entries, err := queue.ListEntries(storage.DB, userID)
	if err != nil {
		return nil, err
	}
	origin := requestOrigin(c)
	items := make([]queue.QueueItem, 0, len(entries))
	for _, entry := range entries {
		track, err := queue.Resolve(storage.DB, entry.SongID, origin)
		if err != nil {
			return nil, err
		}
		items = append(items, queue.NewQueueItem(entry, *track))
	}
	return items, nil
}

// queueError переводит ошибки очереди в HTTP-ответы
func queueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrTrackNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "TRACK_NOT_FOUND",
			Message: "Трек не найден",
		})
	case errors.Is(err, queue.ErrSongNotInQueue):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SONG_NOT_IN_QUEUE",
			Message: "Трек отсутствует в очереди",
		})
	case errors.Is(err, queue.ErrNoPreviousTrack):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "NO_PREVIOUS_TRACK",
			Message: "Нет предыдущего трека",
		})
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при работе с очередью",
			Details: err.Error(),
		})
	}
}

// GetQueueHandler обрабатывает запрос на получение очереди пользователя
// @Summary		Очередь воспроизведения
// @Description	Возвращает очередь пользователя с полными метаданными треков по порядку позиций
// @Tags			queue
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	QueueListResponse	"Очередь пользователя"
// @Failure		401	{object}	response.ErrorResponse	"Требуется авторизация"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/user/queue [get]
func GetQueueHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	items, err := loadQueue(c, userID)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, QueueListResponse{Queue: items})
}

// AddToQueueHandler обрабатывает запрос на добавление трека в очередь
// @Summary		Добавление трека в очередь
// @Description	Добавляет трек в очередь пользователя; первый трек пустой очереди становится текущим
// @Tags			queue
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			request	body		AddToQueueRequest	true	"Трек и необязательная позиция"
// @Success		200	{object}	QueueItemResponse	"Добавленная запись очереди"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Трек не найден (TRACK_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/user/queue/add [post]
func AddToQueueHandler(c *gin.Context) {
	var req AddToQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	userID := c.GetUint("userID")
	entry, err := queue.Add(userID, req.SongID, req.Position, req.PlayNow)
	if err != nil {
		queueError(c, err)
		return
	}

	track, err := queue.Resolve(storage.DB, entry.SongID, requestOrigin(c))
	if err != nil {
		queueError(c, err)
		return
	}

	c.JSON(http.StatusOK, QueueItemResponse{QueueItem: queue.NewQueueItem(*entry, *track)})
}

// RemoveFromQueueHandler обрабатывает запрос на удаление трека из очереди
// @Summary		Удаление трека из очереди
// @Description	Удаляет трек из очереди; позиции остальных треков пересчитываются без пропусков
// @Tags			queue
// @Produce		json
// @Security		BearerAuth
// @Param			song_id	path		string	true	"ID трека"
// @Success		200	{object}	response.SuccessResponse	"Трек удалён из очереди"
// @Failure		400	{object}	response.ErrorResponse	"Неверный идентификатор трека (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Трек отсутствует в очереди (SONG_NOT_IN_QUEUE)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/user/queue/remove/{song_id} [delete]
func RemoveFromQueueHandler(c *gin.Context) {
	songID, err := strconv.Atoi(c.Param("song_id"))
	if err != nil || songID <= 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор трека",
		})
		return
	}

	userID := c.GetUint("userID")
	if err := queue.Remove(userID, uint(songID)); err != nil {
		queueError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Трек удалён из очереди"})
}

// UpdateCurrentHandler обрабатывает запрос на смену текущего трека
// @Summary		Смена текущего трека
// @Description	Делает указанный трек очереди текущим; флаг снимается со всех остальных записей
// @Tags			queue
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			request	body		UpdateCurrentRequest	true	"Трек из очереди"
// @Success		200	{object}	response.SuccessResponse	"Текущий трек обновлён"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Трек отсутствует в очереди (SONG_NOT_IN_QUEUE)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/user/queue/update-current [put]
func UpdateCurrentHandler(c *gin.Context) {
	var req UpdateCurrentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	userID := c.GetUint("userID")
	if err := queue.SetCurrent(userID, req.SongID); err != nil {
		queueError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Текущий трек обновлён"})
}

// NextTrackHandler обрабатывает переход к следующему треку
// @Summary		Следующий трек
// @Description	Убирает текущий трек из очереди и делает текущим трек с позиции 1. Пустая очередь — не ошибка: в ответе currentSong равен null. При ручном пропуске (fromEnded=false) уходящий трек записывается в историю
// @Tags			queue
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			request	body		NextRequest	false	"Флаг естественного окончания трека"
// @Success		200	{object}	CurrentQueueResponse	"Новый текущий трек и обновлённая очередь"
// @Failure		400	{object}	response.ErrorResponse	"Некорректное тело запроса (VALIDATION_ERROR)"
// @Failure		401	{object}	response.ErrorResponse	"Требуется авторизация"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/user/queue/next [post]
func NextTrackHandler(c *gin.Context) {
	var req NextRequest
	// Тело запроса необязательно, но некорректный JSON отклоняем до любых мутаций
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Ошибка валидации данных",
				Details: err.Error(),
			})
			return
		}
	}

	userID := c.GetUint("userID")
	entry, err := queue.Advance(userID, req.FromEnded)
	if err != nil {
		queueError(c, err)
		return
	}

	res, err := currentQueueResponse(c, userID, entry)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviousTrackHandler обрабатывает возврат к предыдущему треку
// @Summary		Предыдущий трек
// @Description	Снимает с истории последний трек и ставит его на позицию 1 текущим; вся очередь сдвигается на позицию вверх
// @Tags			queue
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	CurrentQueueResponse	"Новый текущий трек и обновлённая очередь"
// @Failure		401	{object}	response.ErrorResponse	"Требуется авторизация"
// @Failure		404	{object}	response.ErrorResponse	"История пуста (NO_PREVIOUS_TRACK)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/user/queue/previous [post]
func PreviousTrackHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	entry, err := queue.Retreat(userID)
	if err != nil {
		queueError(c, err)
		return
	}

	res, err := currentQueueResponse(c, userID, entry)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// currentQueueResponse собирает ответ с текущим треком и обновлённой очередью.
// Ошибка перечитывания очереди отдаётся вызывающему: пустой ответ вместо неё
// выглядел бы для клиента как опустевшая очередь.
func currentQueueResponse(c *gin.Context, userID uint, entry *models.QueueEntry) (CurrentQueueResponse, error) {
	items, err := loadQueue(c, userID)
	if err != nil {
		return CurrentQueueResponse{}, err
	}

	var current *queue.QueueItem
	if entry != nil {
		for i := range items {
			if items[i].QueueID == entry.ID {
				current = &items[i]
				break
			}
		}
	}

	return CurrentQueueResponse{CurrentSong: current, Queue: items}, nil
}
