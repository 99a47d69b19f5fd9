package tasks

import (
	"log"

	"musicbox/internal/storage"

	"github.com/robfig/cron/v3"
)

// historyKeepPerUser — сколько последних записей истории храним на пользователя.
// История append-only и без обрезки растёт неограниченно.
const historyKeepPerUser = 200

// TrimPlaybackHistory удаляет старые записи истории воспроизведения,
// оставляя каждому пользователю только последние historyKeepPerUser.
// Семантика кнопки "предыдущий трек" не меняется: свежие записи не трогаем.
func TrimPlaybackHistory() {
	result := storage.DB.Exec(`
		DELETE FROM history_entries
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY user_id
					ORDER BY created_at DESC, id DESC
				) AS rn
				FROM history_entries
			) ranked
			WHERE ranked.rn > ?
		)`, historyKeepPerUser)
	if result.Error != nil {
		log.Println("Ошибка при очистке истории воспроизведения:", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("История воспроизведения очищена, удалено записей: %d\n", result.RowsAffected)
	}
}

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Очистка истории воспроизведения каждый день в 03:00.
	_, err := c.AddFunc("0 0 3 * * *", TrimPlaybackHistory)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи TrimPlaybackHistory:", err)
	}

	c.Start()
	log.Println("Cron-планировщик запущен.")
	return c
}
