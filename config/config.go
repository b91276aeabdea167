package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const (
	DisplayWindow   = "window"
	DisplayHeadless = "headless"
)

type Config struct {
	// захват
	CameraSource  string
	CaptureWidth  int
	CaptureHeight int

	// модель
	ModelPath       string
	ModelConfigPath string
	LabelsPath      string
	InputSize       int
	NetBackend      string
	NetTarget       string
	ModelLayout     string

	// детекция
	ConfidenceThreshold float64
	NMSThreshold        float64
	InferenceTimeout    time.Duration
	RetryInference      bool
	ReadTimeout         time.Duration
	MaxReadFailures     int
	PolicyPath          string

	// вывод
	DisplayMode string
	WindowTitle string
	StopKey     string
	MaxFrames   int

	Pipelined bool
	QueueSize int

	MetricsAddr string
	LogLevel    string
	LogFile     string

	// триггер-сервис
	TriggerPort  int
	DetectorBin  string
	DetectorArgs []string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	e := &env{}
	cfg := &Config{
		CameraSource:  e.str("CAMERA_SOURCE", "0"),
		CaptureWidth:  e.integer("CAPTURE_WIDTH", 0),
		CaptureHeight: e.integer("CAPTURE_HEIGHT", 0),

		ModelPath:       e.str("MODEL_PATH", "ppe.onnx"),
		ModelConfigPath: e.str("MODEL_CONFIG_PATH", ""),
		LabelsPath:      e.str("LABELS_PATH", ""),
		InputSize:       e.integer("MODEL_INPUT_SIZE", 640),
		NetBackend:      e.str("NET_BACKEND", "default"),
		NetTarget:       e.str("NET_TARGET", "cpu"),
		ModelLayout:     e.str("MODEL_LAYOUT", "auto"),

		ConfidenceThreshold: e.float("CONFIDENCE_THRESHOLD", 0.25),
		NMSThreshold:        e.float("NMS_THRESHOLD", 0.45),
		InferenceTimeout:    e.duration("INFERENCE_TIMEOUT", 0),
		RetryInference:      e.boolean("RETRY_INFERENCE", false),
		ReadTimeout:         e.duration("READ_TIMEOUT", 2*time.Second),
		MaxReadFailures:     e.integer("MAX_READ_FAILURES", 5),
		PolicyPath:          e.str("POLICY_PATH", ""),

		DisplayMode: e.str("DISPLAY_MODE", DisplayWindow),
		WindowTitle: e.str("WINDOW_TITLE", "YOLO Detection"),
		StopKey:     e.str("STOP_KEY", "q"),
		MaxFrames:   e.integer("MAX_FRAMES", 0),

		Pipelined: e.boolean("PIPELINED", false),
		QueueSize: e.integer("QUEUE_SIZE", 2),

		MetricsAddr: e.str("METRICS_ADDR", ""),
		LogLevel:    e.str("LOG_LEVEL", "info"),
		LogFile:     e.str("LOG_FILE", ""),

		TriggerPort:  e.integer("TRIGGER_PORT", 8000),
		DetectorBin:  e.str("DETECTOR_BIN", "detector"),
		DetectorArgs: strings.Fields(e.str("DETECTOR_ARGS", "")),
	}

	if e.err != nil {
		return nil, e.err
	}
	return cfg, nil
}

// Validate проверяет значения после переопределения флагами
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.CameraSource != "", "camera source is empty")
	check(c.CaptureWidth >= 0 && c.CaptureHeight >= 0, "capture size %dx%d is negative", c.CaptureWidth, c.CaptureHeight)
	check(c.ModelPath != "", "model path is empty")
	check(c.InputSize > 0 && c.InputSize%32 == 0, "model input size %d must be a positive multiple of 32", c.InputSize)
	check(c.ConfidenceThreshold >= 0 && c.ConfidenceThreshold <= 1, "confidence threshold %v outside [0,1]", c.ConfidenceThreshold)
	check(c.NMSThreshold > 0 && c.NMSThreshold <= 1, "nms threshold %v outside (0,1]", c.NMSThreshold)
	check(c.InferenceTimeout >= 0, "inference timeout %s is negative", c.InferenceTimeout)
	check(c.ReadTimeout > 0, "read timeout %s must be positive", c.ReadTimeout)
	check(c.MaxReadFailures >= 2, "max read failures %d, want >= 2", c.MaxReadFailures)
	check(c.DisplayMode == DisplayWindow || c.DisplayMode == DisplayHeadless, "display mode %q, want %s or %s", c.DisplayMode, DisplayWindow, DisplayHeadless)
	check(utf8.RuneCountInString(c.StopKey) == 1, "stop key %q must be a single character", c.StopKey)
	check(c.MaxFrames >= 0, "max frames %d is negative", c.MaxFrames)
	check(c.QueueSize >= 1, "queue size %d, want >= 1", c.QueueSize)
	check(c.TriggerPort > 0 && c.TriggerPort < 65536, "trigger port %d out of range", c.TriggerPort)

	return err
}

// StopRune возвращает клавишу остановки
func (c *Config) StopRune() rune {
	r, _ := utf8.DecodeRuneInString(c.StopKey)
	return r
}

// env читает переменные окружения и копит ошибки разбора
type env struct {
	err error
}

func (e *env) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) parse(key string, parse func(string) error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if err := parse(v); err != nil {
		e.err = multierr.Append(e.err, fmt.Errorf("%s=%q: %w", key, v, err))
	}
}

func (e *env) integer(key string, def int) int {
	out := def
	e.parse(key, func(v string) (err error) {
		out, err = strconv.Atoi(v)
		return err
	})
	return out
}

func (e *env) float(key string, def float64) float64 {
	out := def
	e.parse(key, func(v string) (err error) {
		out, err = strconv.ParseFloat(v, 64)
		return err
	})
	return out
}

func (e *env) boolean(key string, def bool) bool {
	out := def
	e.parse(key, func(v string) (err error) {
		out, err = strconv.ParseBool(v)
		return err
	})
	return out
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	out := def
	e.parse(key, func(v string) (err error) {
		out, err = time.ParseDuration(v)
		return err
	})
	return out
}
