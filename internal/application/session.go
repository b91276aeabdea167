package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/policy"
	"safety-vision/internal/domain/port"
)

// SessionDeps ресурсы сессии. Сессия владеет Source, Model и Display
// и освобождает их на любом пути выхода.
type SessionDeps struct {
	Source   port.FrameSource
	Model    port.Model
	Policy   policy.Config
	Renderer port.Renderer
	Display  port.Display
	Metrics  port.SessionMetrics // nil: без метрик
}

// SessionConfig параметры цикла
type SessionConfig struct {
	ConfidenceThreshold    float64
	InferenceTimeout       time.Duration // 0: без дедлайна
	RetryInference         bool          // один повтор на кадр
	ReadTimeout            time.Duration
	MaxConsecutiveFailures int
	Pipelined              bool // захват в отдельной горутине
	QueueSize              int
}

// Session управляет одним прогоном конвейера:
// Starting -> Running -> Draining -> Terminated.
type Session struct {
	id       string
	cfg      SessionConfig
	source   *GuardedSource
	adapter  *InferenceAdapter
	policy   policy.Config
	renderer port.Renderer
	display  port.Display
	metrics  port.SessionMetrics
	logger   *zap.SugaredLogger

	state   atomic.Int32
	started atomic.Bool
}

// NewSession создаёт сессию в состоянии Starting
func NewSession(deps SessionDeps, cfg SessionConfig, logger *zap.SugaredLogger) *Session {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 2
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	id := uuid.NewString()
	logger = logger.With("session", id)

	return &Session{
		id:       id,
		cfg:      cfg,
		source:   NewGuardedSource(deps.Source, cfg.ReadTimeout, cfg.MaxConsecutiveFailures, logger),
		adapter:  NewInferenceAdapter(deps.Model, cfg.InferenceTimeout),
		policy:   deps.Policy,
		renderer: deps.Renderer,
		display:  deps.Display,
		metrics:  metrics,
		logger:   logger,
	}
}

// ID возвращает идентификатор сессии
func (s *Session) ID() string {
	return s.id
}

// State возвращает текущее состояние. Безопасно вызывать из других горутин.
func (s *Session) State() entity.SessionState {
	return entity.SessionState(s.state.Load())
}

// Run выполняет сессию до остановки. Возвращает nil при остановке по запросу
// или концу потока, *entity.CaptureError при отказе устройства и
// *policy.ValidationError, если политика не прошла проверку.
// Повторный вызов возвращает entity.ErrSessionTerminated.
func (s *Session) Run(ctx context.Context) (stats entity.SessionStats, err error) {
	stats.SessionID = s.id
	if s.started.Swap(true) {
		return stats, entity.ErrSessionTerminated
	}
	s.setState(entity.SessionStarting)

	defer func() {
		err = multierr.Append(err, s.drain())
		s.setState(entity.SessionTerminated)
		s.logger.Infow("session terminated",
			"reason", stats.Reason,
			"presented", stats.FramesPresented,
			"dropped", stats.FramesDropped,
			"inference_failures", stats.InferenceFailures,
			"detections", stats.DetectionsRendered,
			"alerts", stats.Alerts,
		)
	}()

	pol, err := policy.New(s.policy, s.adapter.Labels())
	if err != nil {
		stats.Reason = entity.StopStartupFailed
		s.logger.Errorw("policy validation failed", "error", err)
		return stats, err
	}

	s.setState(entity.SessionRunning)
	s.logger.Infow("session running",
		"threshold", s.cfg.ConfidenceThreshold,
		"pipelined", s.cfg.Pipelined,
	)

	if s.cfg.Pipelined {
		err = s.runPipelined(ctx, pol, &stats)
	} else {
		err = s.runSequential(ctx, pol, &stats)
	}
	return stats, err
}

func (s *Session) runSequential(ctx context.Context, pol *policy.Policy, stats *entity.SessionStats) error {
	for {
		if s.stopRequested(ctx) {
			stats.Reason = entity.StopRequested
			return nil
		}

		frame, err := s.source.Next(ctx)
		done, err := s.handleRead(ctx, frame, err, stats)
		if done {
			return err
		}
		if frame == nil {
			continue
		}

		s.process(ctx, frame, pol, stats)
	}
}

// handleRead разбирает результат чтения. done=true завершает цикл.
func (s *Session) handleRead(ctx context.Context, frame *entity.Frame, err error, stats *entity.SessionStats) (bool, error) {
	var captureErr *entity.CaptureError

	switch {
	case err == nil:
		return false, nil

	case errors.Is(err, entity.ErrEndOfStream):
		stats.Reason = entity.StopEndOfStream
		s.logger.Infow("end of stream")
		return true, nil

	case ctx.Err() != nil:
		stats.Reason = entity.StopRequested
		return true, nil

	case errors.As(err, &captureErr):
		stats.Reason = entity.StopCaptureFailed
		s.logger.Errorw("capture failed", "error", err)
		return true, err

	case errors.Is(err, entity.ErrFrameUnavailable):
		stats.FramesDropped++
		s.metrics.FrameDropped()
		s.logger.Warnw("failed to grab frame", "error", err)
		return false, nil
	}

	stats.Reason = entity.StopCaptureFailed
	s.logger.Errorw("capture failed", "error", err)
	return true, &entity.CaptureError{Op: "read", Err: err}
}

// process выполняет инференс, классификацию, отрисовку и показ одного кадра
func (s *Session) process(ctx context.Context, frame *entity.Frame, pol *policy.Policy, stats *entity.SessionStats) {
	start := time.Now()
	detections, err := s.adapter.Infer(ctx, frame, s.cfg.ConfidenceThreshold)
	if err != nil && s.cfg.RetryInference && ctx.Err() == nil {
		s.logger.Debugw("retrying inference", "frame", frame.Seq, "error", err)
		detections, err = s.adapter.Infer(ctx, frame, s.cfg.ConfidenceThreshold)
	}

	if err != nil {
		stats.InferenceFailures++
		s.metrics.InferenceFailed()
		s.logger.Errorw("inference failed, presenting frame unannotated", "frame", frame.Seq, "error", err)
	} else {
		s.metrics.InferenceCompleted(time.Since(start))
		for d := range detections {
			c := pol.Classify(d.Label)
			if err := s.renderer.Render(frame, d, c.Style); err != nil {
				s.logger.Warnw("failed to render detection", "frame", frame.Seq, "label", d.Label, "error", err)
				continue
			}
			stats.DetectionsRendered++
			s.metrics.DetectionRendered(c.Category)
			if c.Alert {
				stats.Alerts++
				s.logger.Debugw("violation detected", "frame", frame.Seq, "label", d.Label, "confidence", d.Confidence)
			}
		}
	}

	if err := s.display.Present(frame); err != nil {
		s.logger.Warnw("failed to present frame", "frame", frame.Seq, "error", err)
		return
	}
	stats.FramesPresented++
	s.metrics.FramePresented(time.Since(frame.CapturedAt))
}

func (s *Session) stopRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return s.display.StopRequested()
}

// drain освобождает источник, окно и модель, собирая ошибки закрытия
func (s *Session) drain() error {
	s.setState(entity.SessionDraining)
	err := multierr.Combine(
		s.source.Close(),
		s.display.Close(),
		s.adapter.Close(),
	)
	if err != nil {
		s.logger.Warnw("errors while releasing resources", "error", err)
	}
	return err
}

func (s *Session) setState(state entity.SessionState) {
	s.state.Store(int32(state))
	s.metrics.StateChanged(state)
}

type nopMetrics struct{}

func (nopMetrics) StateChanged(entity.SessionState) {}
func (nopMetrics) FramePresented(time.Duration) {}
func (nopMetrics) FrameDropped() {}
func (nopMetrics) InferenceCompleted(time.Duration) {}
func (nopMetrics) InferenceFailed() {}
func (nopMetrics) DetectionRendered(entity.Category) {}
