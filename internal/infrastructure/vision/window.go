//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"
	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// Window окно OpenCV. Клавиша остановки опрашивается после каждого кадра.
type Window struct {
	win     *gocv.Window
	stopKey int
	delay   int
	stop    bool
	logger  *zap.SugaredLogger
}

// NewWindow открывает окно. Должен вызываться из главного потока.
func NewWindow(cfg WindowConfig, logger *zap.SugaredLogger) (*Window, error) {
	if cfg.Title == "" {
		cfg.Title = "YOLO Detection"
	}
	if cfg.StopKey == 0 {
		cfg.StopKey = 'q'
	}
	delay := int(cfg.Delay / time.Millisecond)
	if delay < 1 {
		delay = 1
	}

	return &Window{
		win:     gocv.NewWindow(cfg.Title),
		stopKey: int(cfg.StopKey),
		delay:   delay,
		logger:  logger,
	}, nil
}

// Present показывает кадр и проверяет клавишу остановки
func (w *Window) Present(frame *entity.Frame) error {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	if key := w.win.WaitKey(w.delay); key >= 0 && key&0xFF == w.stopKey {
		w.logger.Infow("stop key pressed", "key", string(rune(w.stopKey)))
		w.stop = true
	}
	return nil
}

// StopRequested сообщает, что нажата клавиша остановки
func (w *Window) StopRequested() bool {
	return w.stop
}

// Close закрывает окно
func (w *Window) Close() error {
	return w.win.Close()
}

var _ port.Display = (*Window)(nil)
