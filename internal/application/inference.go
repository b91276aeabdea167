package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// DefaultConfidenceThreshold порог уверенности по умолчанию
const DefaultConfidenceThreshold = 0.25

var errEmptyFrame = errors.New("empty frame")

// InferenceAdapter владеет моделью на время сессии и превращает её выход
// в проверенные детекции.
type InferenceAdapter struct {
	model   port.Model
	labels  []string
	timeout time.Duration

	dropped atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// NewInferenceAdapter создаёт адаптер. timeout <= 0 отключает дедлайн на кадр.
func NewInferenceAdapter(model port.Model, timeout time.Duration) *InferenceAdapter {
	return &InferenceAdapter{
		model:   model,
		labels:  model.Labels(),
		timeout: timeout,
	}
}

// Labels возвращает таблицу меток модели
func (a *InferenceAdapter) Labels() []string {
	return a.labels
}

// Infer запускает модель на кадре и возвращает ленивую однопроходную
// последовательность детекций с confidence >= threshold.
// Ошибка модели возвращается как *entity.InferenceError, а пустая
// последовательность означает, что объектов нет.
func (a *InferenceAdapter) Infer(ctx context.Context, frame *entity.Frame, threshold float64) (iter.Seq[entity.Detection], error) {
	var seq uint64
	if frame != nil {
		seq = frame.Seq
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, &entity.InferenceError{FrameSeq: seq, Err: fmt.Errorf("confidence threshold %v outside [0,1]", threshold)}
	}
	if frame.Empty() {
		return nil, &entity.InferenceError{FrameSeq: seq, Err: errEmptyFrame}
	}

	ictx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ictx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raws, err := a.model.Predict(ictx, frame.Image, threshold)
	if err == nil && errors.Is(ictx.Err(), context.DeadlineExceeded) {
		// модель не следит за контекстом: просрочку всё равно видно
		err = fmt.Errorf("exceeded %s deadline: %w", a.timeout, ictx.Err())
	}
	if err != nil {
		return nil, &entity.InferenceError{FrameSeq: seq, Err: err}
	}

	bounds := frame.Bounds()
	used := false

	return func(yield func(entity.Detection) bool) {
		if used {
			return
		}
		used = true

		for _, raw := range raws {
			if raw.Confidence < threshold {
				continue
			}
			label, ok := a.label(raw.ClassID)
			if !ok {
				a.dropped.Add(1)
				continue
			}
			d, err := entity.NewDetection(raw, label, bounds)
			if err != nil {
				a.dropped.Add(1)
				continue
			}
			if !yield(d) {
				return
			}
		}
	}, nil
}

// Dropped возвращает число отброшенных некорректных детекций
func (a *InferenceAdapter) Dropped() int64 {
	return a.dropped.Load()
}

// Close освобождает модель ровно один раз
func (a *InferenceAdapter) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.model.Close()
	})
	return a.closeErr
}

func (a *InferenceAdapter) label(classID int) (string, bool) {
	if classID < 0 || classID >= len(a.labels) {
		return "", false
	}
	return a.labels[classID], true
}
