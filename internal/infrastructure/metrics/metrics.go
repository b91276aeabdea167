package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

const namespace = "safety_vision"

// Metrics счётчики конвейера детекции на собственном реестре Prometheus
type Metrics struct {
	framesPresented   prometheus.Counter
	framesDropped     prometheus.Counter
	inferenceFailures prometheus.Counter
	detections        *prometheus.CounterVec
	frameLatency      prometheus.Histogram
	inferenceLatency  prometheus.Histogram

	state atomic.Int32

	registry *prometheus.Registry
}

// New создаёт метрики и регистрирует их
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesPresented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_presented_total",
			Help:      "Frames shown to the display",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames lost to failed reads or a full capture queue",
		}),
		inferenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_failures_total",
			Help:      "Frames presented unannotated because inference failed",
		}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_rendered_total",
			Help:      "Detections drawn, by category",
		}, []string{"category"}),
		frameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_latency_seconds",
			Help:      "Time from capture to presentation",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		inferenceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Model inference time per frame",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.framesPresented,
		m.framesDropped,
		m.inferenceFailures,
		m.detections,
		m.frameLatency,
		m.inferenceLatency,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "Session state (0=starting, 1=running, 2=draining, 3=terminated)",
		}, func() float64 { return float64(m.state.Load()) }),
	)

	return m
}

func (m *Metrics) StateChanged(state entity.SessionState) {
	m.state.Store(int32(state))
}

func (m *Metrics) FramePresented(latency time.Duration) {
	m.framesPresented.Inc()
	m.frameLatency.Observe(latency.Seconds())
}

func (m *Metrics) FrameDropped() {
	m.framesDropped.Inc()
}

func (m *Metrics) InferenceCompleted(d time.Duration) {
	m.inferenceLatency.Observe(d.Seconds())
}

func (m *Metrics) InferenceFailed() {
	m.inferenceFailures.Inc()
}

func (m *Metrics) DetectionRendered(category entity.Category) {
	m.detections.WithLabelValues(category.String()).Inc()
}

// Handler возвращает HTTP-обработчик Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve отдаёт /metrics на addr до отмены контекста
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infow("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var _ port.SessionMetrics = (*Metrics)(nil)
