//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// closeWait сколько Close ждёт незавершённое чтение
const closeWait = 5 * time.Second

type readResult struct {
	frame *entity.Frame
	err   error
}

// Camera источник кадров на gocv.VideoCapture: камера, видеофайл или поток.
type Camera struct {
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	file   bool
	logger *zap.SugaredLogger

	// pending не nil, пока чтение не завершилось. Второе чтение не начинается.
	pending chan readResult
}

// NewCamera открывает источник
func NewCamera(cfg CameraConfig, logger *zap.SugaredLogger) (*Camera, error) {
	var device interface{} = cfg.Source
	if isDeviceIndex(cfg.Source) {
		id, err := strconv.Atoi(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("parse device index: %w", err)
		}
		device = id
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", cfg.Source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open capture %q: device not available", cfg.Source)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	file := !isDeviceIndex(cfg.Source) && !strings.Contains(cfg.Source, "://")
	logger.Infow("capture opened",
		"source", cfg.Source,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"file", file,
	)

	return &Camera{
		vc:     vc,
		mat:    gocv.NewMat(),
		file:   file,
		logger: logger,
	}, nil
}

// Next читает кадр. Если контекст истёк раньше, чтение остаётся
// незавершённым и его результат вернёт следующий вызов.
func (c *Camera) Next(ctx context.Context) (*entity.Frame, error) {
	if c.pending == nil {
		c.pending = make(chan readResult, 1)
		go c.read(c.pending)
	}

	select {
	case r := <-c.pending:
		c.pending = nil
		return r.frame, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Camera) read(out chan<- readResult) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		out <- readResult{err: c.readFailure()}
		return
	}

	img, err := c.mat.ToImage()
	if err != nil {
		out <- readResult{err: fmt.Errorf("convert frame: %w: %w", entity.ErrFrameUnavailable, err)}
		return
	}
	out <- readResult{frame: entity.NewFrame(toRGBA(img), time.Now())}
}

// readFailure отличает конец файла от разового сбоя
func (c *Camera) readFailure() error {
	if c.file {
		pos := c.vc.Get(gocv.VideoCapturePosFrames)
		total := c.vc.Get(gocv.VideoCaptureFrameCount)
		if total > 0 && pos >= total {
			return entity.ErrEndOfStream
		}
	}
	if !c.vc.IsOpened() {
		return errors.New("capture device closed")
	}
	return entity.ErrFrameUnavailable
}

// Close освобождает устройство. Незавершённое чтение дожидается,
// при долгом чтении освобождение откладывается до его конца.
func (c *Camera) Close() error {
	pending := c.pending
	c.pending = nil
	_, err := releaseWhenIdle[readResult](pending, closeWait, c.release, c.logger)
	return err
}

func (c *Camera) release() error {
	return multierr.Combine(c.mat.Close(), c.vc.Close())
}

var _ port.FrameSource = (*Camera)(nil)
