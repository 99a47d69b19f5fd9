package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"musicbox/internal/auth"
	"musicbox/internal/handlers"
	"musicbox/internal/models"
	"musicbox/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AuthMiddlewareTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.Request.Header.Get("X-Test-UserID")
		if userIDStr == "" {
			// Значение по умолчанию
			c.Set("userID", uint(1))
		} else {
			id, err := strconv.Atoi(userIDStr)
			if err != nil {
				c.Set("userID", uint(1))
			} else {
				c.Set("userID", uint(id))
			}
		}
		c.Next()
	}
}

func setupTestServer() *httptest.Server {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load("../../.env")
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectTestingDatabase()
	storage.DB.Exec("TRUNCATE TABLE users, artists, albums, songs, queue_entries, history_entries RESTART IDENTITY CASCADE;")

	if err := storage.DB.AutoMigrate(&models.User{}, &models.Artist{}, &models.Album{}, &models.Song{}, &models.QueueEntry{}, &models.HistoryEntry{}); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	r := gin.Default()

	songs := r.Group("/songs")
	{
		songs.GET("", handlers.GetSongsHandler)
		songs.GET("/:id", handlers.GetSongHandler)
	}

	userQueue := r.Group("/user/queue", AuthMiddlewareTest())
	{
		userQueue.GET("", handlers.GetQueueHandler)
		userQueue.POST("/add", handlers.AddToQueueHandler)
		userQueue.DELETE("/remove/:song_id", handlers.RemoveFromQueueHandler)
		userQueue.PUT("/update-current", handlers.UpdateCurrentHandler)
		userQueue.POST("/next", handlers.NextTrackHandler)
		userQueue.POST("/previous", handlers.PreviousTrackHandler)
	}

	return httptest.NewServer(r)
}

func seedSong(t *testing.T, title string) models.Song {
	artist := models.Artist{Name: "Исполнитель " + title}
	require.NoError(t, storage.DB.Create(&artist).Error, "Ошибка создания исполнителя")

	song := models.Song{
		Title:     title,
		Duration:  180,
		AudioPath: "/static/audio/" + title + ".mp3",
		ArtistID:  artist.ID,
	}
	require.NoError(t, storage.DB.Create(&song).Error, "Ошибка создания трека")
	return song
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(data)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "Ошибка выполнения запроса")

	var decoded map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&decoded)
	res.Body.Close()
	return res, decoded
}

func queueFromResponse(t *testing.T, decoded map[string]interface{}) []map[string]interface{} {
	raw, ok := decoded["queue"].([]interface{})
	require.True(t, ok, "В ответе отсутствует поле queue")
	items := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		items = append(items, r.(map[string]interface{}))
	}
	return items
}

func TestQueueFlow(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	a := seedSong(t, "alpha")
	b := seedSong(t, "beta")
	c := seedSong(t, "gamma")

	// 1. Добавляем три трека: первый становится текущим
	res, decoded := doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{"song_id": a.ID})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Не удалось добавить трек в очередь")
	item := decoded["queue_item"].(map[string]interface{})
	assert.Equal(t, float64(1), item["position"])
	assert.Equal(t, true, item["is_current"])

	res, _ = doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{"song_id": b.ID})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{"song_id": c.ID})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// 2. Очередь отдаётся по порядку позиций с абсолютными URL
	res, decoded = doJSON(t, "GET", ts.URL+"/user/queue", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	items := queueFromResponse(t, decoded)
	require.Len(t, items, 3)
	assert.Equal(t, "alpha", items[0]["title"])
	assert.Equal(t, ts.URL+"/static/audio/alpha.mp3", items[0]["audio_url"], "URL аудио должен быть абсолютным")

	// 3. Смена текущего трека
	res, _ = doJSON(t, "PUT", ts.URL+"/user/queue/update-current", gin.H{"song_id": b.ID})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// 4. next убирает текущий трек (beta) и делает текущим трек с позиции 1 (alpha)
	res, decoded = doJSON(t, "POST", ts.URL+"/user/queue/next", gin.H{"fromEnded": false})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	current := decoded["currentSong"].(map[string]interface{})
	assert.Equal(t, "alpha", current["title"])
	items = queueFromResponse(t, decoded)
	require.Len(t, items, 2)

	// 5. previous возвращает beta из истории на позицию 1
	res, decoded = doJSON(t, "POST", ts.URL+"/user/queue/previous", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	current = decoded["currentSong"].(map[string]interface{})
	assert.Equal(t, "beta", current["title"])
	items = queueFromResponse(t, decoded)
	require.Len(t, items, 3)
	assert.Equal(t, "beta", items[0]["title"])
	assert.Equal(t, true, items[0]["is_current"])

	// 6. Повторный previous: история уже пуста
	res, decoded = doJSON(t, "POST", ts.URL+"/user/queue/previous", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "NO_PREVIOUS_TRACK", decoded["code"])

	// 7. Удаление трека пересчитывает позиции
	res, _ = doJSON(t, "DELETE", ts.URL+"/user/queue/remove/"+strconv.Itoa(int(c.ID)), nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, decoded = doJSON(t, "GET", ts.URL+"/user/queue", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	items = queueFromResponse(t, decoded)
	require.Len(t, items, 2)
	assert.Equal(t, float64(1), items[0]["position"])
	assert.Equal(t, float64(2), items[1]["position"])

	// 8. Удаление трека вне очереди — 404, очередь не меняется
	res, decoded = doJSON(t, "DELETE", ts.URL+"/user/queue/remove/9999", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "SONG_NOT_IN_QUEUE", decoded["code"])

	// 9. next с fromEnded=true не пишет историю: previous сразу отвечает 404
	res, _ = doJSON(t, "POST", ts.URL+"/user/queue/next", gin.H{"fromEnded": true})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, decoded = doJSON(t, "POST", ts.URL+"/user/queue/previous", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "NO_PREVIOUS_TRACK", decoded["code"])

	// 10. Вычерпываем очередь: next на пустой очереди — это 200 с currentSong=null
	res, _ = doJSON(t, "POST", ts.URL+"/user/queue/next", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, decoded = doJSON(t, "POST", ts.URL+"/user/queue/next", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Nil(t, decoded["currentSong"])
	assert.Empty(t, queueFromResponse(t, decoded))
}

func TestAddUnknownSongReturns404(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	res, decoded := doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{"song_id": 12345})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "TRACK_NOT_FOUND", decoded["code"])
}

func TestAddValidationError(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	res, decoded := doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decoded["code"])
}

func TestCatalogLookup(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	song := seedSong(t, "solo")

	res, decoded := doJSON(t, "GET", ts.URL+"/songs/"+strconv.Itoa(int(song.ID)), nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "solo", decoded["title"])
	assert.Equal(t, ts.URL+"/static/audio/solo.mp3", decoded["audio_url"])

	res, decoded = doJSON(t, "GET", ts.URL+"/songs/9999", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "TRACK_NOT_FOUND", decoded["code"])
}

func TestQueueRequiresAuth(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	// Отдельный роутер с боевым middleware: без токена — 401
	r := gin.New()
	r.GET("/user/queue", auth.AuthMiddleware(), handlers.GetQueueHandler)
	guarded := httptest.NewServer(r)
	defer guarded.Close()

	res, decoded := doJSON(t, "GET", guarded.URL+"/user/queue", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "NO_AUTH_HEADER", decoded["code"])
}

func TestNextRejectsMalformedBody(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	a := seedSong(t, "alpha")
	res, _ := doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{"song_id": a.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Некорректный тип поля отклоняется до каких-либо мутаций
	res, decoded := doJSON(t, "POST", ts.URL+"/user/queue/next", gin.H{"fromEnded": "yes"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decoded["code"])

	res, decoded = doJSON(t, "GET", ts.URL+"/user/queue", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	items := queueFromResponse(t, decoded)
	require.Len(t, items, 1, "Очередь не должна измениться после отклонённого запроса")
	assert.Equal(t, true, items[0]["is_current"])
}

func TestNextSurfacesRefetchFailure(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	a := seedSong(t, "alpha")
	b := seedSong(t, "beta")
	res, _ := doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{"song_id": a.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = doJSON(t, "POST", ts.URL+"/user/queue/add", gin.H{"song_id": b.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Трек beta исчезает из каталога: перечитывание очереди после next
	// не может разрешить его метаданные
	require.NoError(t, storage.DB.Unscoped().Delete(&models.Song{}, b.ID).Error)

	res, decoded := doJSON(t, "POST", ts.URL+"/user/queue/next", gin.H{"fromEnded": false})
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "Сбой перечитывания не должен маскироваться под пустую очередь")
	assert.Equal(t, "TRACK_NOT_FOUND", decoded["code"])
	assert.Nil(t, decoded["queue"], "Ответ с ошибкой не должен содержать пустую очередь")

	// Сам переход зафиксирован: на сервере осталась одна запись очереди
	var count int64
	require.NoError(t, storage.DB.Model(&models.QueueEntry{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSongsListingSurfacesResolveFailure(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	artist := models.Artist{Name: "Исполнитель"}
	require.NoError(t, storage.DB.Create(&artist).Error)
	album := models.Album{Title: "Альбом", ArtistID: artist.ID}
	require.NoError(t, storage.DB.Create(&album).Error)
	song := models.Song{
		Title:     "alpha",
		Duration:  180,
		AudioPath: "/static/audio/alpha.mp3",
		ArtistID:  artist.ID,
		AlbumID:   &album.ID,
	}
	require.NoError(t, storage.DB.Create(&song).Error)

	// Ломаем разрешение метаданных: без таблицы альбомов Preload падает
	require.NoError(t, storage.DB.Migrator().DropTable(&models.Album{}))
	defer func() {
		require.NoError(t, storage.DB.AutoMigrate(&models.Album{}))
	}()

	res, decoded := doJSON(t, "GET", ts.URL+"/songs", nil)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode, "Сбой разрешения трека не должен молча сжимать каталог")
	assert.Equal(t, "DB_ERROR", decoded["code"])
}
