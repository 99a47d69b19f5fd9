package queue

import (
	"errors"

	"musicbox/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pushHistory добавляет трек в историю воспроизведения. Записи не
// дедуплицируются: один трек может встречаться в истории сколько угодно раз.
func pushHistory(tx *gorm.DB, userID, songID uint) error {
	return tx.Create(&models.HistoryEntry{UserID: userID, SongID: songID}).Error
}

// popHistory снимает самую свежую запись истории и удаляет её тем же шагом.
// Второе значение false — история пуста; это не ошибка.
func popHistory(tx *gorm.DB, userID uint) (uint, bool, error) {
	var entry models.HistoryEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if err := tx.Unscoped().Delete(&entry).Error; err != nil {
		return 0, false, err
	}
	return entry.SongID, true, nil
}
