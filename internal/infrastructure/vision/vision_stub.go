//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// Camera заглушка источника кадров (без OpenCV).
type Camera struct{}

// NewCamera возвращает ошибку, если сборка без тега gocv.
func NewCamera(cfg CameraConfig, logger *zap.SugaredLogger) (*Camera, error) {
	_ = cfg
	_ = logger
	return nil, errNoGoCV
}

func (c *Camera) Next(ctx context.Context) (*entity.Frame, error) { return nil, errNoGoCV }
func (c *Camera) Close() error { return nil }

// YOLOModel заглушка модели (без OpenCV).
type YOLOModel struct{}

// NewYOLOModel возвращает ошибку, если сборка без тега gocv.
func NewYOLOModel(cfg ModelConfig, logger *zap.SugaredLogger) (*YOLOModel, error) {
	_ = cfg
	_ = logger
	return nil, errNoGoCV
}

func (m *YOLOModel) Labels() []string { return nil }

func (m *YOLOModel) Predict(ctx context.Context, img *image.RGBA, minConfidence float64) ([]entity.RawDetection, error) {
	return nil, errNoGoCV
}

func (m *YOLOModel) Close() error { return nil }

// Window заглушка окна (без OpenCV).
type Window struct{}

// NewWindow возвращает ошибку, если сборка без тега gocv.
func NewWindow(cfg WindowConfig, logger *zap.SugaredLogger) (*Window, error) {
	_ = cfg
	_ = logger
	return nil, errNoGoCV
}

func (w *Window) Present(frame *entity.Frame) error { return errNoGoCV }
func (w *Window) StopRequested() bool { return true }
func (w *Window) Close() error { return nil }
