package player

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// BeepEngine воспроизводит аудио по URL через системный динамик.
type BeepEngine struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	ctrl        *beep.Ctrl
	streamer    beep.StreamSeekCloser
	format      beep.Format
	body        *http.Response
	done        chan struct{}
	onFinished  func() // Вызывается при естественном окончании трека
}

func NewBeepEngine() *BeepEngine {
	return &BeepEngine{
		sampleRate: beep.SampleRate(44100),
		done:       make(chan struct{}),
	}
}

// SetOnFinished задаёт обработчик естественного окончания трека.
// Обработчик вызывается в отдельной горутине.
func (e *BeepEngine) SetOnFinished(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFinished = fn
}

// Load скачивает аудиопоток по URL и подготавливает его к воспроизведению
func (e *BeepEngine) Load(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	res, err := http.Get(url)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return fmt.Errorf("не удалось получить аудиопоток: статус %d", res.StatusCode)
	}

	streamer, format, err := mp3.Decode(res.Body)
	if err != nil {
		res.Body.Close()
		return err
	}

	if !e.initialized {
		if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			res.Body.Close()
			return err
		}
		e.initialized = true
	}

	e.streamer = streamer
	e.format = format
	e.body = res
	e.done = make(chan struct{})

	resampled := beep.Resample(4, format.SampleRate, e.sampleRate, streamer)
	e.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	return nil
}

// Play запускает воспроизведение загруженного источника
func (e *BeepEngine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return
	}

	done := e.done
	fn := e.onFinished
	speaker.Clear()
	speaker.Play(beep.Seq(e.ctrl, beep.Callback(func() {
		close(done)
		if fn != nil {
			// Отдельная горутина: обработчик обычно сам запускает следующий трек
			go fn()
		}
	})))

	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
}

// Pause приостанавливает воспроизведение
func (e *BeepEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Stop останавливает воспроизведение и освобождает источник
func (e *BeepEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *BeepEngine) stopLocked() {
	if e.ctrl != nil {
		speaker.Clear()
		e.ctrl = nil
	}
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.body != nil {
		e.body.Body.Close()
		e.body = nil
	}
}

// Done возвращает канал, закрываемый при окончании текущего трека
func (e *BeepEngine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Position возвращает текущую позицию воспроизведения
func (e *BeepEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(pos)
}
