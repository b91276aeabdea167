package display

import (
	"sync/atomic"

	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// Headless дисплей без окна: только считает показанные кадры.
// При maxFrames > 0 просит остановку после стольких кадров.
type Headless struct {
	maxFrames int64
	presented atomic.Int64
	closed    atomic.Int32
	logger    *zap.SugaredLogger
}

// NewHeadless создаёт дисплей без окна
func NewHeadless(maxFrames int, logger *zap.SugaredLogger) *Headless {
	return &Headless{maxFrames: int64(maxFrames), logger: logger}
}

// Present отмечает кадр как показанный
func (h *Headless) Present(frame *entity.Frame) error {
	n := h.presented.Add(1)
	if n%100 == 0 {
		h.logger.Debugw("frames presented", "count", n)
	}
	return nil
}

// StopRequested сообщает, что лимит кадров достигнут
func (h *Headless) StopRequested() bool {
	return h.maxFrames > 0 && h.presented.Load() >= h.maxFrames
}

// Presented возвращает число показанных кадров
func (h *Headless) Presented() int64 {
	return h.presented.Load()
}

// Close ничего не освобождает, только логирует итог
func (h *Headless) Close() error {
	if h.closed.Add(1) == 1 {
		h.logger.Infow("headless display closed", "presented", h.presented.Load())
	}
	return nil
}

var _ port.Display = (*Headless)(nil)
