package player

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"musicbox/internal/queue"
	"musicbox/internal/response"
)

var (
	// ErrUnauthorized — токен отсутствует или недействителен; нужен повторный вход
	ErrUnauthorized = errors.New("требуется авторизация")
	// ErrNotFound — трек не найден в каталоге или в очереди
	ErrNotFound = errors.New("не найдено")
	// ErrNoPreviousTrack — история пуста; мягкое состояние, не сбой
	ErrNoPreviousTrack = errors.New("нет предыдущего трека")
)

// Client — типизированный HTTP-клиент очереди воспроизведения
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    http.DefaultClient,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login получает access токен и сохраняет его для последующих запросов
func (c *Client) Login(email, password string) error {
	var tokens response.TokenResponse
	if err := c.doJSON(http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &tokens); err != nil {
		return err
	}
	c.Token = tokens.AccessToken
	return nil
}

type queueListResponse struct {
	Queue []queue.QueueItem `json:"queue"`
}

type queueItemResponse struct {
	QueueItem queue.QueueItem `json:"queue_item"`
}

type currentQueueResponse struct {
	CurrentSong *queue.QueueItem  `json:"currentSong"`
	Queue       []queue.QueueItem `json:"queue"`
}

// FetchQueue возвращает серверное состояние очереди
func (c *Client) FetchQueue() ([]queue.QueueItem, error) {
	var res queueListResponse
	if err := c.doJSON(http.MethodGet, "/user/queue", nil, &res); err != nil {
		return nil, err
	}
	return res.Queue, nil
}

type addRequest struct {
	SongID   uint `json:"song_id"`
	Position int  `json:"position,omitempty"`
	PlayNow  bool `json:"play_now,omitempty"`
}

// Add добавляет трек в очередь
func (c *Client) Add(songID uint, position int, playNow bool) (*queue.QueueItem, error) {
	var res queueItemResponse
	if err := c.doJSON(http.MethodPost, "/user/queue/add", addRequest{SongID: songID, Position: position, PlayNow: playNow}, &res); err != nil {
		return nil, err
	}
	return &res.QueueItem, nil
}

// Remove убирает трек из очереди
func (c *Client) Remove(songID uint) error {
	return c.doJSON(http.MethodDelete, fmt.Sprintf("/user/queue/remove/%d", songID), nil, nil)
}

type setCurrentRequest struct {
	SongID uint `json:"song_id"`
}

// SetCurrent делает трек очереди текущим
func (c *Client) SetCurrent(songID uint) error {
	return c.doJSON(http.MethodPut, "/user/queue/update-current", setCurrentRequest{SongID: songID}, nil)
}

type nextRequest struct {
	FromEnded bool `json:"fromEnded"`
}

// Next переключает очередь на следующий трек
func (c *Client) Next(fromEnded bool) (*queue.QueueItem, []queue.QueueItem, error) {
	var res currentQueueResponse
	if err := c.doJSON(http.MethodPost, "/user/queue/next", nextRequest{FromEnded: fromEnded}, &res); err != nil {
		return nil, nil, err
	}
	return res.CurrentSong, res.Queue, nil
}

// Previous возвращает очередь к предыдущему треку из истории
func (c *Client) Previous() (*queue.QueueItem, []queue.QueueItem, error) {
	var res currentQueueResponse
	if err := c.doJSON(http.MethodPost, "/user/queue/previous", nil, &res); err != nil {
		return nil, nil, err
	}
	return res.CurrentSong, res.Queue, nil
}

func (c *Client) doJSON(method, path string, body interface{}, out interface{}) error {
	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewBuffer(data)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return c.apiError(res)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// apiError переводит ответ с ошибкой в ошибку клиента
func (c *Client) apiError(res *http.Response) error {
	var apiErr response.ErrorResponse
	_ = json.NewDecoder(res.Body).Decode(&apiErr)

	switch {
	case apiErr.Code == "NO_PREVIOUS_TRACK":
		return ErrNoPreviousTrack
	case res.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	}
	if apiErr.Message != "" {
		return fmt.Errorf("ошибка сервера (%s): %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("ошибка сервера: статус %d", res.StatusCode)
}
