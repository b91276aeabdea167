package vision

import (
	"fmt"
	"sort"

	"safety-vision/internal/domain/entity"
)

// outputLayout расположение тензора выхода YOLO
type outputLayout int

const (
	layoutAuto      outputLayout = iota // по форме тензора
	layoutAttrMajor                     // [1, 4+C, N], YOLOv8/v11
	layoutRowMajor                      // [1, N, 4+C], YOLOv5 без objectness и экспорт с транспонированием
	layoutEnd2End                       // [1, N, 6]: x1, y1, x2, y2, score, class (YOLOv10)
)

// Имена раскладок для ModelConfig.Layout
const (
	LayoutAuto    = "auto"
	LayoutYOLOv8  = "yolov8"
	LayoutYOLOv5  = "yolov5"
	LayoutEnd2End = "end2end"
)

// parseLayout разбирает имя раскладки, пустая строка означает auto
func parseLayout(name string) (outputLayout, error) {
	switch name {
	case "", LayoutAuto:
		return layoutAuto, nil
	case LayoutYOLOv8:
		return layoutAttrMajor, nil
	case LayoutYOLOv5:
		return layoutRowMajor, nil
	case LayoutEnd2End:
		return layoutEnd2End, nil
	}
	return layoutAuto, fmt.Errorf("unknown output layout %q, want %s, %s, %s or %s", name, LayoutAuto, LayoutYOLOv8, LayoutYOLOv5, LayoutEnd2End)
}

// decodeParams масштаб и пороги разбора выхода
type decodeParams struct {
	layout         outputLayout // layoutAuto: определить по форме
	inputW, inputH int // размер входа сети
	frameW, frameH int // размер исходного кадра
	numClasses     int
	minConfidence  float64
	nmsThreshold   float64
}

// detectLayout определяет раскладку по форме тензора. Без подсказки форма
// [1, N, 6] у модели на два класса читается как [1, N, 4+C]: выход
// end2end такой модели нужно указать явно.
func detectLayout(shape []int, numClasses int, hint outputLayout) (outputLayout, int, error) {
	if len(shape) == 2 {
		shape = append([]int{1}, shape...)
	}
	if len(shape) != 3 || shape[0] != 1 {
		return 0, 0, fmt.Errorf("unexpected output shape %v", shape)
	}

	attrs := 4 + numClasses
	switch hint {
	case layoutAttrMajor:
		if shape[1] == attrs {
			return layoutAttrMajor, shape[2], nil
		}
	case layoutRowMajor:
		if shape[2] == attrs {
			return layoutRowMajor, shape[1], nil
		}
	case layoutEnd2End:
		if shape[2] == 6 {
			return layoutEnd2End, shape[1], nil
		}
	default:
		switch {
		case shape[1] == attrs:
			return layoutAttrMajor, shape[2], nil
		case shape[2] == attrs:
			return layoutRowMajor, shape[1], nil
		case shape[2] == 6:
			return layoutEnd2End, shape[1], nil
		}
	}
	return 0, 0, fmt.Errorf("output shape %v does not match %d classes", shape, numClasses)
}

// decodeYOLO превращает сырой тензор в детекции в пикселях кадра.
// Рамки не обрезаются: это делает entity.NewDetection.
func decodeYOLO(data []float32, shape []int, p decodeParams) ([]entity.RawDetection, error) {
	layout, n, err := detectLayout(shape, p.numClasses, p.layout)
	if err != nil {
		return nil, err
	}

	attrs := 4 + p.numClasses
	if layout == layoutEnd2End {
		attrs = 6
	}
	if len(data) < n*attrs {
		return nil, fmt.Errorf("output has %d values, want %d", len(data), n*attrs)
	}

	sx := float64(p.frameW) / float64(p.inputW)
	sy := float64(p.frameH) / float64(p.inputH)

	at := func(i, a int) float64 {
		if layout == layoutAttrMajor {
			return float64(data[a*n+i])
		}
		return float64(data[i*attrs+a])
	}

	out := make([]entity.RawDetection, 0, 16)
	for i := 0; i < n; i++ {
		if layout == layoutEnd2End {
			score := at(i, 4)
			if score < p.minConfidence {
				continue
			}
			out = append(out, entity.RawDetection{
				X1:         at(i, 0) * sx,
				Y1:         at(i, 1) * sy,
				X2:         at(i, 2) * sx,
				Y2:         at(i, 3) * sy,
				ClassID:    int(at(i, 5)),
				Confidence: score,
			})
			continue
		}

		classID, score := -1, 0.0
		for c := 0; c < p.numClasses; c++ {
			if s := at(i, 4+c); s > score {
				classID, score = c, s
			}
		}
		if classID < 0 || score < p.minConfidence {
			continue
		}

		cx, cy, w, h := at(i, 0), at(i, 1), at(i, 2), at(i, 3)
		out = append(out, entity.RawDetection{
			X1:         (cx - w/2) * sx,
			Y1:         (cy - h/2) * sy,
			X2:         (cx + w/2) * sx,
			Y2:         (cy + h/2) * sy,
			ClassID:    classID,
			Confidence: score,
		})
	}

	if layout == layoutEnd2End {
		return out, nil
	}
	return suppress(out, p.nmsThreshold), nil
}

// suppress: жадный NMS по классам: из пересекающихся рамок одного класса
// с IoU > threshold остаётся самая уверенная.
func suppress(dets []entity.RawDetection, threshold float64) []entity.RawDetection {
	if threshold <= 0 || len(dets) < 2 {
		return dets
	}

	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})

	kept := make([]entity.RawDetection, 0, len(dets))
	for _, d := range dets {
		overlaps := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && iou(k, d) > threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, d)
		}
	}
	return kept
}

func iou(a, b entity.RawDetection) float64 {
	ix := min(a.X2, b.X2) - max(a.X1, b.X1)
	iy := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
