package player

import (
	"sync"

	"musicbox/internal/queue"
)

// Engine — движок воспроизведения, которым управляет зеркало очереди
type Engine interface {
	// Load подменяет источник звука
	Load(url string) error
	// Play запускает воспроизведение загруженного источника
	Play()
	// Stop останавливает воспроизведение и освобождает источник
	Stop()
}

// Mirror — клиентская копия серверной очереди. Копия не авторитетна:
// после каждой мутации состояние целиком перечитывается с сервера, локальных
// "предсказаний" нет. При смене текущего трека зеркало само подменяет
// источник звука и запускает воспроизведение.
type Mirror struct {
	mu       sync.Mutex
	client   *Client
	engine   Engine
	current  *queue.QueueItem
	items    []queue.QueueItem
	expanded bool
	shuffle  bool // Флаг перемешивания; на порядок воспроизведения пока не влияет
}

func NewMirror(client *Client, engine Engine) *Mirror {
	return &Mirror{
		client: client,
		engine: engine,
	}
}

// Refresh перечитывает очередь с сервера и синхронизирует воспроизведение
func (m *Mirror) Refresh() error {
	items, err := m.client.FetchQueue()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(items)
	return nil
}

// apply заменяет локальную копию очереди и реагирует на смену текущего трека
func (m *Mirror) apply(items []queue.QueueItem) {
	m.items = items

	var cur *queue.QueueItem
	for i := range items {
		if items[i].IsCurrent {
			cur = &items[i]
			break
		}
	}

	switch {
	case cur == nil:
		if m.current != nil {
			m.engine.Stop()
		}
		m.current = nil
	case m.current == nil || m.current.QueueID != cur.QueueID:
		// Текущий трек сменился под активным плеером: подменяем источник
		// и запускаем воспроизведение автоматически
		m.current = cur
		if err := m.engine.Load(cur.AudioURL); err == nil {
			m.engine.Play()
		}
	default:
		// Тот же трек, обновились только метаданные и позиции
		m.current = cur
	}
}

// Add добавляет трек в очередь и перечитывает состояние
func (m *Mirror) Add(songID uint, position int, playNow bool) error {
	if _, err := m.client.Add(songID, position, playNow); err != nil {
		return err
	}
	return m.Refresh()
}

// Remove убирает трек из очереди и перечитывает состояние
func (m *Mirror) Remove(songID uint) error {
	if err := m.client.Remove(songID); err != nil {
		return err
	}
	return m.Refresh()
}

// SetCurrent делает трек текущим и перечитывает состояние
func (m *Mirror) SetCurrent(songID uint) error {
	if err := m.client.SetCurrent(songID); err != nil {
		return err
	}
	return m.Refresh()
}

// Next переключает очередь на следующий трек и перечитывает состояние
func (m *Mirror) Next(fromEnded bool) error {
	if _, _, err := m.client.Next(fromEnded); err != nil {
		return err
	}
	return m.Refresh()
}

// Previous возвращает очередь к предыдущему треку. ErrNoPreviousTrack из
// клиента — мягкое состояние: сервер ничего не менял, перечитывать нечего.
func (m *Mirror) Previous() error {
	if _, _, err := m.client.Previous(); err != nil {
		return err
	}
	return m.Refresh()
}

// Current возвращает копию текущего трека (nil — очередь пуста)
func (m *Mirror) Current() *queue.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cur := *m.current
	return &cur
}

// Items возвращает копию очереди по порядку позиций
func (m *Mirror) Items() []queue.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]queue.QueueItem, len(m.items))
	copy(items, m.items)
	return items
}

// ToggleExpanded переключает развёрнутый вид очереди
func (m *Mirror) ToggleExpanded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expanded = !m.expanded
	return m.expanded
}

func (m *Mirror) Expanded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expanded
}

// ToggleShuffle переключает инертный флаг перемешивания
func (m *Mirror) ToggleShuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shuffle = !m.shuffle
	return m.shuffle
}

// Reset полностью сбрасывает зеркало при выходе пользователя: ничего из
// состояния не должно пережить смену аккаунта.
func (m *Mirror) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.engine.Stop()
	}
	m.current = nil
	m.items = nil
	m.expanded = false
	m.shuffle = false
}
