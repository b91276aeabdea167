package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

const (
	DefaultReadTimeout            = 2 * time.Second
	DefaultMaxConsecutiveFailures = 5
)

// GuardedSource ограничивает чтение кадров по времени и превращает серию
// неудачных чтений в CaptureError. Закрывает источник ровно один раз.
type GuardedSource struct {
	src         port.FrameSource
	readTimeout time.Duration
	maxFailures int
	logger      *zap.SugaredLogger

	failures int
	seq      uint64

	closeOnce sync.Once
	closeErr  error
}

// NewGuardedSource оборачивает источник. Нулевые значения заменяются значениями по умолчанию.
func NewGuardedSource(src port.FrameSource, readTimeout time.Duration, maxFailures int, logger *zap.SugaredLogger) *GuardedSource {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if maxFailures < 2 {
		maxFailures = DefaultMaxConsecutiveFailures
	}
	return &GuardedSource{
		src:         src,
		readTimeout: readTimeout,
		maxFailures: maxFailures,
		logger:      logger,
	}
}

// Next возвращает кадр, entity.ErrEndOfStream, ошибку с entity.ErrFrameUnavailable
// (разовый сбой, можно читать дальше) или *entity.CaptureError.
func (g *GuardedSource) Next(ctx context.Context) (*entity.Frame, error) {
	rctx, cancel := context.WithTimeout(ctx, g.readTimeout)
	defer cancel()

	frame, err := g.src.Next(rctx)
	if err == nil && frame.Empty() {
		err = fmt.Errorf("empty frame: %w", entity.ErrFrameUnavailable)
	}

	switch {
	case err == nil:
		g.failures = 0
		g.seq++
		frame.Seq = g.seq
		if frame.CapturedAt.IsZero() {
			frame.CapturedAt = time.Now()
		}
		return frame, nil

	case errors.Is(err, entity.ErrEndOfStream):
		return nil, err

	case ctx.Err() != nil:
		// отмена вызывающим, а не отказ устройства
		return nil, ctx.Err()

	case errors.Is(err, entity.ErrFrameUnavailable), errors.Is(err, context.DeadlineExceeded):
		g.failures++
		if g.failures >= g.maxFailures {
			return nil, &entity.CaptureError{
				Op:  "read",
				Err: fmt.Errorf("%d consecutive failed reads, last: %w", g.failures, err),
			}
		}
		if !errors.Is(err, entity.ErrFrameUnavailable) {
			err = fmt.Errorf("%w: %w", entity.ErrFrameUnavailable, err)
		}
		return nil, err
	}

	var captureErr *entity.CaptureError
	if errors.As(err, &captureErr) {
		return nil, err
	}
	return nil, &entity.CaptureError{Op: "read", Err: err}
}

// Close освобождает источник. Повторные вызовы возвращают результат первого.
func (g *GuardedSource) Close() error {
	g.closeOnce.Do(func() {
		g.closeErr = g.src.Close()
		if g.logger != nil {
			g.logger.Debugw("frame source released", "error", g.closeErr)
		}
	})
	return g.closeErr
}

var _ port.FrameSource = (*GuardedSource)(nil)
