package queue

import (
	"errors"

	"musicbox/internal/models"
	"musicbox/internal/storage"

	"gorm.io/gorm"
)

// withUserLock выполняет fn внутри транзакции, предварительно взяв
// advisory-блокировку Postgres на пользователя. Все операции над очередью
// одного пользователя строго сериализуются: два одновременных "next"
// выполнятся последовательно, второй увидит завершённое состояние первого.
// Блокировка снимается автоматически при commit/rollback.
func withUserLock(userID uint, fn func(tx *gorm.DB) error) error {
	return storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(userID)).Error; err != nil {
			return err
		}
		return fn(tx)
	})
}

// Add добавляет трек в очередь пользователя. Несуществующий трек — ErrTrackNotFound.
// При playImmediately (или если очередь была пуста) добавленный трек становится текущим.
func Add(userID, songID uint, position int, playImmediately bool) (*models.QueueEntry, error) {
	var entry *models.QueueEntry
	err := withUserLock(userID, func(tx *gorm.DB) error {
		var song models.Song
		if err := tx.First(&song, songID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTrackNotFound
			}
			return err
		}

		e, err := appendEntry(tx, userID, songID, position)
		if err != nil {
			return err
		}
		if playImmediately && !e.IsCurrent {
			if err := markCurrent(tx, e); err != nil {
				return err
			}
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove убирает трек из очереди. Если удалён текущий трек и очередь не
// опустела, текущим становится трек с позиции 1.
func Remove(userID, songID uint) error {
	return withUserLock(userID, func(tx *gorm.DB) error {
		entry, err := findEntry(tx, userID, songID)
		if err != nil {
			return err
		}
		if err := deleteEntry(tx, entry); err != nil {
			return err
		}
		if entry.IsCurrent {
			next, err := firstByPosition(tx, userID)
			if err != nil {
				return err
			}
			if next != nil {
				return markCurrent(tx, next)
			}
		}
		return nil
	})
}

// SetCurrent делает указанный трек текущим. Трек вне очереди — ErrSongNotInQueue.
func SetCurrent(userID, songID uint) error {
	return withUserLock(userID, func(tx *gorm.DB) error {
		entry, err := findEntry(tx, userID, songID)
		if err != nil {
			return err
		}
		return markCurrent(tx, entry)
	})
}

// Advance переключает очередь на следующий трек. На пустой очереди это
// no-op с nil-результатом, не ошибка. При fromEnded=false уходящий трек
// записывается в историю; естественное завершение (fromEnded=true) историю
// не пополняет — асимметрия сохранена сознательно.
func Advance(userID uint, fromEnded bool) (*models.QueueEntry, error) {
	var current *models.QueueEntry
	err := withUserLock(userID, func(tx *gorm.DB) error {
		var cur models.QueueEntry
		err := tx.Where("user_id = ? AND is_current", userID).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if !fromEnded {
			if err := pushHistory(tx, userID, cur.SongID); err != nil {
				return err
			}
		}

		if err := deleteEntry(tx, &cur); err != nil {
			return err
		}

		next, err := firstByPosition(tx, userID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if err := markCurrent(tx, next); err != nil {
			return err
		}
		current = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

// Retreat возвращает очередь к предыдущему треку из истории: вся очередь
// сдвигается на позицию вверх, снятый с истории трек встаёт на позицию 1
// текущим. Пустая история — ErrNoPreviousTrack.
func Retreat(userID uint) (*models.QueueEntry, error) {
	var current *models.QueueEntry
	err := withUserLock(userID, func(tx *gorm.DB) error {
		songID, ok, err := popHistory(tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoPreviousTrack
		}

		// Сдвиг и сброс флага текущего одним запросом
		if err := tx.Model(&models.QueueEntry{}).
			Where("user_id = ?", userID).
			UpdateColumns(map[string]interface{}{
				"position":   gorm.Expr("position + 1"),
				"is_current": false,
			}).Error; err != nil {
			return err
		}

		entry := models.QueueEntry{
			UserID:    userID,
			SongID:    songID,
			Position:  1,
			IsCurrent: true,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		current = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}
