package container

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"safety-vision/config"
	"safety-vision/internal/api"
	app "safety-vision/internal/application"
	"safety-vision/internal/domain/policy"
	"safety-vision/internal/domain/port"
	"safety-vision/internal/infrastructure/display"
	"safety-vision/internal/infrastructure/launcher"
	"safety-vision/internal/infrastructure/metrics"
	"safety-vision/internal/infrastructure/policyfile"
	"safety-vision/internal/infrastructure/render"
	"safety-vision/internal/infrastructure/storage"
	"safety-vision/internal/infrastructure/vision"
)

// Detector собранная сессия детекции
type Detector struct {
	Session *app.Session
	Metrics *metrics.Metrics
}

// NewDetector открывает модель, источник и окно и собирает сессию.
// При ошибке уже открытые ресурсы закрываются.
func NewDetector(cfg *config.Config, logger *zap.SugaredLogger) (_ *Detector, err error) {
	policyCfg, err := LoadPolicy(cfg)
	if err != nil {
		return nil, err
	}
	labels, err := LoadLabels(cfg)
	if err != nil {
		return nil, err
	}
	// плохие правила не должны открывать камеру
	if _, err := policy.New(policyCfg, labels); err != nil {
		return nil, err
	}

	renderer, err := render.NewAnnotator(render.Options{})
	if err != nil {
		return nil, err
	}

	var opened []io.Closer
	defer func() {
		if err != nil {
			for i := len(opened) - 1; i >= 0; i-- {
				err = multierr.Append(err, opened[i].Close())
			}
		}
	}()

	model, err := vision.NewYOLOModel(vision.ModelConfig{
		Path:         cfg.ModelPath,
		ConfigPath:   cfg.ModelConfigPath,
		Labels:       labels,
		InputSize:    cfg.InputSize,
		NMSThreshold: cfg.NMSThreshold,
		Backend:      cfg.NetBackend,
		Target:       cfg.NetTarget,
		Layout:       cfg.ModelLayout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	opened = append(opened, model)

	source, err := vision.NewCamera(vision.CameraConfig{
		Source: cfg.CameraSource,
		Width:  cfg.CaptureWidth,
		Height: cfg.CaptureHeight,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	opened = append(opened, source)

	disp, err := NewDisplay(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open display: %w", err)
	}

	m := metrics.New()
	session := app.NewSession(app.SessionDeps{
		Source:   source,
		Model:    model,
		Policy:   policyCfg,
		Renderer: renderer,
		Display:  disp,
		Metrics:  m,
	}, app.SessionConfig{
		ConfidenceThreshold:    cfg.ConfidenceThreshold,
		InferenceTimeout:       cfg.InferenceTimeout,
		RetryInference:         cfg.RetryInference,
		ReadTimeout:            cfg.ReadTimeout,
		MaxConsecutiveFailures: cfg.MaxReadFailures,
		Pipelined:              cfg.Pipelined,
		QueueSize:              cfg.QueueSize,
	}, logger)

	return &Detector{Session: session, Metrics: m}, nil
}

// LoadPolicy читает правила из POLICY_PATH или берёт встроенные правила СИЗ
func LoadPolicy(cfg *config.Config) (policy.Config, error) {
	if cfg.PolicyPath == "" {
		return policyfile.Default()
	}
	return policyfile.Load(cfg.PolicyPath)
}

// LoadLabels читает метки модели из LABELS_PATH или берёт таблицу СИЗ
func LoadLabels(cfg *config.Config) ([]string, error) {
	if cfg.LabelsPath == "" {
		return policy.PPELabels, nil
	}
	return vision.ReadLabels(cfg.LabelsPath)
}

// NewDisplay окно OpenCV или счётчик кадров без окна
func NewDisplay(cfg *config.Config, logger *zap.SugaredLogger) (port.Display, error) {
	if cfg.DisplayMode == config.DisplayHeadless {
		return display.NewHeadless(cfg.MaxFrames, logger), nil
	}
	return vision.NewWindow(vision.WindowConfig{
		Title:   cfg.WindowTitle,
		StopKey: cfg.StopRune(),
	}, logger)
}

// NewTrigger собирает HTTP-сервис запуска детекции
func NewTrigger(cfg *config.Config, logger *zap.SugaredLogger) *api.Trigger {
	launches := app.NewLaunchService(
		launcher.New(cfg.DetectorBin, cfg.DetectorArgs),
		storage.NewMemoryLaunchRepository(),
		logger,
	)
	return api.NewTrigger(launches, logger)
}
