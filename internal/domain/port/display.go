package port

import "safety-vision/internal/domain/entity"

// Display интерфейс вывода кадров
type Display interface {
	// Present показывает кадр. Хранить кадр после возврата нельзя.
	Present(frame *entity.Frame) error

	// StopRequested сообщает, что пользователь попросил остановку
	StopRequested() bool

	// Close закрывает окно
	Close() error
}
