package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"safety-vision/internal/domain/entity"
)

// attrMajor собирает тензор [1, 4+C, N] из строк по детекциям
func attrMajor(rows [][]float32) []float32 {
	n, attrs := len(rows), len(rows[0])
	data := make([]float32, n*attrs)
	for i, row := range rows {
		for a, v := range row {
			data[a*n+i] = v
		}
	}
	return data
}

func TestDetectLayout(t *testing.T) {
	layout, n, err := detectLayout([]int{1, 14, 8400}, 10, layoutAuto)
	require.NoError(t, err)
	require.Equal(t, layoutAttrMajor, layout)
	require.Equal(t, 8400, n)

	layout, n, err = detectLayout([]int{1, 8400, 14}, 10, layoutAuto)
	require.NoError(t, err)
	require.Equal(t, layoutRowMajor, layout)
	require.Equal(t, 8400, n)

	layout, n, err = detectLayout([]int{1, 300, 6}, 10, layoutAuto)
	require.NoError(t, err)
	require.Equal(t, layoutEnd2End, layout)
	require.Equal(t, 300, n)

	_, _, err = detectLayout([]int{1, 7, 7}, 10, layoutAuto)
	require.Error(t, err)
	_, _, err = detectLayout([]int{2, 14, 8400}, 10, layoutAuto)
	require.Error(t, err)
}

func TestDetectLayout_Hint(t *testing.T) {
	// два класса: [1, N, 6] подходит и под yolov5, и под end2end
	layout, n, err := detectLayout([]int{1, 300, 6}, 2, layoutAuto)
	require.NoError(t, err)
	require.Equal(t, layoutRowMajor, layout)
	require.Equal(t, 300, n)

	layout, n, err = detectLayout([]int{1, 300, 6}, 2, layoutEnd2End)
	require.NoError(t, err)
	require.Equal(t, layoutEnd2End, layout)
	require.Equal(t, 300, n)

	// подсказка не совпала с формой
	_, _, err = detectLayout([]int{1, 14, 8400}, 10, layoutEnd2End)
	require.Error(t, err)
}

func TestParseLayout(t *testing.T) {
	for name, want := range map[string]outputLayout{
		"":            layoutAuto,
		LayoutAuto:    layoutAuto,
		LayoutYOLOv8:  layoutAttrMajor,
		LayoutYOLOv5:  layoutRowMajor,
		LayoutEnd2End: layoutEnd2End,
	} {
		got, err := parseLayout(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := parseLayout("yolox")
	require.Error(t, err)
}

func TestDecodeYOLO_End2EndHintForTwoClasses(t *testing.T) {
	// x1, y1, x2, y2, score, class
	data := []float32{
		10, 20, 110, 220, 0.8, 1,
		0, 0, 5, 5, 0.1, 0,
	}
	p := decodeParams{layout: layoutEnd2End, inputW: 640, inputH: 640, frameW: 640, frameH: 640, numClasses: 2, minConfidence: 0.25}

	got, err := decodeYOLO(data, []int{1, 2, 6}, p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, entity.RawDetection{X1: 10, Y1: 20, X2: 110, Y2: 220, ClassID: 1, Confidence: float64(float32(0.8))}, got[0])
}

func TestDecodeYOLO_AttrMajorScalesToFrame(t *testing.T) {
	rows := [][]float32{
		// cx, cy, w, h, score класса 0, score класса 1
		{320, 320, 64, 64, 0.1, 0.9},
		{100, 100, 20, 20, 0.2, 0.1}, // ниже порога
	}
	p := decodeParams{inputW: 640, inputH: 640, frameW: 1280, frameH: 320, numClasses: 2, minConfidence: 0.25, nmsThreshold: 0.45}

	got, err := decodeYOLO(attrMajor(rows), []int{1, 6, 2}, p)
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := got[0]
	require.Equal(t, 1, d.ClassID)
	require.InDelta(t, 0.9, d.Confidence, 1e-6)
	require.InDelta(t, 576, d.X1, 1e-6)
	require.InDelta(t, 704, d.X2, 1e-6)
	require.InDelta(t, 144, d.Y1, 1e-6)
	require.InDelta(t, 176, d.Y2, 1e-6)
}

func TestDecodeYOLO_RowMajor(t *testing.T) {
	data := []float32{
		50, 50, 20, 20, 0.8, 0.1, 0.1,
		10, 10, 4, 4, 0.0, 0.0, 0.3,
	}
	p := decodeParams{inputW: 100, inputH: 100, frameW: 100, frameH: 100, numClasses: 3, minConfidence: 0.25, nmsThreshold: 0.45}

	got, err := decodeYOLO(data, []int{1, 2, 7}, p)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 0, got[0].ClassID)
	require.Equal(t, 2, got[1].ClassID)
}

func TestDecodeYOLO_ClassWiseNMS(t *testing.T) {
	rows := [][]float32{
		{50, 50, 40, 40, 0.9, 0},
		{52, 52, 40, 40, 0.7, 0}, // тот же класс, почти та же рамка
		{52, 52, 40, 40, 0, 0.6}, // другой класс не подавляется
		{150, 150, 40, 40, 0.5, 0},
	}
	p := decodeParams{inputW: 200, inputH: 200, frameW: 200, frameH: 200, numClasses: 2, minConfidence: 0.25, nmsThreshold: 0.45}

	got, err := decodeYOLO(attrMajor(rows), []int{1, 6, 4}, p)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.InDelta(t, 0.9, got[0].Confidence, 1e-6)
	require.Equal(t, 1, got[1].ClassID)
	require.InDelta(t, 0.5, got[2].Confidence, 1e-6)
}

func TestDecodeYOLO_End2End(t *testing.T) {
	data := []float32{
		10, 20, 110, 220, 0.8, 3,
		0, 0, 10, 10, 0.1, 1,
	}
	p := decodeParams{inputW: 640, inputH: 640, frameW: 320, frameH: 320, numClasses: 10, minConfidence: 0.25}

	got, err := decodeYOLO(data, []int{1, 2, 6}, p)
	require.NoError(t, err)
	require.Equal(t, []entity.RawDetection{{X1: 5, Y1: 10, X2: 55, Y2: 110, ClassID: 3, Confidence: float64(float32(0.8))}}, got)
}

func TestDecodeYOLO_ShortBuffer(t *testing.T) {
	p := decodeParams{inputW: 640, inputH: 640, frameW: 640, frameH: 640, numClasses: 2}
	_, err := decodeYOLO(make([]float32, 5), []int{1, 6, 2}, p)
	require.Error(t, err)
}

func TestIoU(t *testing.T) {
	a := entity.RawDetection{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := entity.RawDetection{X1: 5, Y1: 0, X2: 15, Y2: 10}
	c := entity.RawDetection{X1: 20, Y1: 20, X2: 30, Y2: 30}

	require.InDelta(t, 50.0/150.0, iou(a, b), 1e-9)
	require.Zero(t, iou(a, c))
	require.InDelta(t, 1.0, iou(a, a), 1e-9)
}
