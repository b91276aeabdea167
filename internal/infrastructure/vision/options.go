package vision

import "time"

const (
	DefaultInputSize    = 640
	DefaultNMSThreshold = 0.45
)

// CameraConfig параметры источника кадров
type CameraConfig struct {
	Source string // индекс устройства ("0") или путь/URL видео
	Width  int    // 0: как у устройства
	Height int
}

// ModelConfig параметры YOLO-модели
type ModelConfig struct {
	Path         string // .onnx или .weights
	ConfigPath   string // .cfg для darknet, для ONNX пусто
	Labels       []string
	InputSize    int
	NMSThreshold float64
	Backend      string // default, opencv, cuda, openvino
	Target       string // cpu, cuda, fp16, opencl
	Layout       string // auto, yolov8, yolov5, end2end
}

// WindowConfig параметры окна вывода
type WindowConfig struct {
	Title   string
	StopKey rune
	Delay   time.Duration // ожидание клавиши после каждого кадра
}
