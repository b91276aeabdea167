package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream кадры в источнике закончились
	ErrEndOfStream = errors.New("end of stream")
	// ErrFrameUnavailable разовая ошибка чтения, можно повторить
	ErrFrameUnavailable = errors.New("frame unavailable")
	// ErrSessionTerminated повторное использование завершённой сессии
	ErrSessionTerminated = errors.New("session terminated")
)

// CaptureError устройство захвата недоступно, сессия завершается
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// InferenceError модель не справилась с одним кадром. Для сессии не фатально.
type InferenceError struct {
	FrameSeq uint64
	Err      error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference on frame %d: %v", e.FrameSeq, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// LaunchError не удалось запустить процесс детекции
type LaunchError struct {
	Strategy string
	Err      error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch (%s): %v", e.Strategy, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
