package queue

import (
	"errors"

	"musicbox/internal/models"

	"gorm.io/gorm"
)

// appendEntry вставляет трек в очередь пользователя.
// position <= 0 либо position за концом очереди — вставка в конец.
// При совпадении позиции с существующей записью хвост очереди сдвигается
// вверх одним запросом до вставки, чтобы плотная нумерация не нарушалась
// даже на мгновение.
func appendEntry(tx *gorm.DB, userID, songID uint, position int) (*models.QueueEntry, error) {
	var count int64
	if err := tx.Model(&models.QueueEntry{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}

	if position <= 0 || position > int(count)+1 {
		position = int(count) + 1
	}

	if position <= int(count) {
		// Освобождаем место под вставку
		if err := tx.Model(&models.QueueEntry{}).
			Where("user_id = ? AND position >= ?", userID, position).
			UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
			return nil, err
		}
	}

	entry := models.QueueEntry{
		UserID:    userID,
		SongID:    songID,
		Position:  position,
		IsCurrent: count == 0, // Первый трек в пустой очереди сразу становится текущим
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// findEntry ищет запись очереди по треку; при дублях берётся ближайшая по позиции
func findEntry(tx *gorm.DB, userID, songID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := tx.Where("user_id = ? AND song_id = ?", userID, songID).
		Order("position ASC").
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotInQueue
		}
		return nil, err
	}
	return &entry, nil
}

// deleteEntry удаляет запись и сдвигает вниз все позиции после неё
func deleteEntry(tx *gorm.DB, entry *models.QueueEntry) error {
	if err := tx.Unscoped().Delete(entry).Error; err != nil {
		return err
	}
	return tx.Model(&models.QueueEntry{}).
		Where("user_id = ? AND position > ?", entry.UserID, entry.Position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
}

// markCurrent переносит флаг текущего трека на entry.
// Сброс и установка выполняются в одной транзакции вызывающего: состояние
// с нулём или двумя текущими записями снаружи не наблюдаемо.
func markCurrent(tx *gorm.DB, entry *models.QueueEntry) error {
	if err := tx.Model(&models.QueueEntry{}).
		Where("user_id = ? AND is_current", entry.UserID).
		UpdateColumn("is_current", false).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.QueueEntry{}).
		Where("id = ?", entry.ID).
		UpdateColumn("is_current", true).Error; err != nil {
		return err
	}
	entry.IsCurrent = true
	return nil
}

// firstByPosition возвращает запись с наименьшей позицией (nil — очередь пуста)
func firstByPosition(tx *gorm.DB, userID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := tx.Where("user_id = ?", userID).Order("position ASC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries возвращает очередь пользователя по возрастанию позиций
func ListEntries(db *gorm.DB, userID uint) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if err := db.Where("user_id = ?", userID).Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
