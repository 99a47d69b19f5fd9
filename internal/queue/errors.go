package queue

import "errors"

var (
	// ErrTrackNotFound — трек с таким ID отсутствует в каталоге
	ErrTrackNotFound = errors.New("трек не найден")
	// ErrSongNotInQueue — трек не состоит в очереди пользователя
	ErrSongNotInQueue = errors.New("трек отсутствует в очереди")
	// ErrNoPreviousTrack — история воспроизведения пуста
	ErrNoPreviousTrack = errors.New("нет предыдущего трека")
)
