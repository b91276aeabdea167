package port

import (
	"context"

	"safety-vision/internal/domain/entity"
)

// FrameSource интерфейс источника кадров (камера, видеофайл)
type FrameSource interface {
	// Next возвращает следующий кадр в собственном буфере.
	// entity.ErrEndOfStream: кадры закончились, entity.ErrFrameUnavailable:
	// разовая ошибка чтения. Любая другая ошибка значит, что устройства нет.
	Next(ctx context.Context) (*entity.Frame, error)

	// Close освобождает устройство захвата
	Close() error
}
