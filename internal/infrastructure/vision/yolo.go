//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// YOLOModel детектор на gocv DNN. Принимает ONNX-экспорт YOLO
// или darknet weights+cfg.
type YOLOModel struct {
	net          gocv.Net
	labels       []string
	inputSize    int
	nmsThreshold float64
	layout       outputLayout
	logger       *zap.SugaredLogger

	mu sync.Mutex
}

// NewYOLOModel загружает сеть и настраивает бэкенд
func NewYOLOModel(cfg ModelConfig, logger *zap.SugaredLogger) (*YOLOModel, error) {
	if len(cfg.Labels) == 0 {
		return nil, errors.New("model labels are empty")
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return nil, fmt.Errorf("model config file: %w", err)
		}
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultInputSize
	}
	if cfg.NMSThreshold <= 0 {
		cfg.NMSThreshold = DefaultNMSThreshold
	}
	layout, err := parseLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(cfg.Path, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network %s", cfg.Path)
	}

	backend := gocv.ParseNetBackend(cfg.Backend)
	target := gocv.ParseNetTarget(cfg.Target)
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend %q: %w", cfg.Backend, err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target %q: %w", cfg.Target, err)
	}

	logger.Infow("detection network loaded",
		"model", cfg.Path,
		"classes", len(cfg.Labels),
		"input", cfg.InputSize,
		"backend", cfg.Backend,
		"target", cfg.Target,
		"layout", cfg.Layout,
	)

	return &YOLOModel{
		net:          net,
		labels:       cfg.Labels,
		inputSize:    cfg.InputSize,
		nmsThreshold: cfg.NMSThreshold,
		layout:       layout,
		logger:       logger,
	}, nil
}

// Labels возвращает таблицу классов модели
func (m *YOLOModel) Labels() []string {
	return m.labels
}

// Predict прогоняет кадр через сеть
func (m *YOLOModel) Predict(ctx context.Context, img *image.RGBA, minConfidence float64) ([]entity.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(m.inputSize, m.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, errors.New("empty network output")
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read network output: %w", err)
	}

	b := img.Bounds()
	return decodeYOLO(data, output.Size(), decodeParams{
		layout:        m.layout,
		inputW:        m.inputSize,
		inputH:        m.inputSize,
		frameW:        b.Dx(),
		frameH:        b.Dy(),
		numClasses:    len(m.labels),
		minConfidence: minConfidence,
		nmsThreshold:  m.nmsThreshold,
	})
}

// Close освобождает сеть
func (m *YOLOModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

var _ port.Model = (*YOLOModel)(nil)
