package entity

import (
	"fmt"
	"image"
	"math"
)

// RawDetection сырой выход модели до валидации. Координаты в пикселях кадра.
type RawDetection struct {
	X1, Y1, X2, Y2 float64
	ClassID        int
	Confidence     float64
}

// Detection проверенная детекция. После NewDetection не изменяется.
type Detection struct {
	Box        image.Rectangle // обрезан по кадру, Min < Max по обеим осям
	ClassID    int
	Label      string
	Confidence float64 // в диапазоне [0,1]
}

// NewDetection проверяет сырую детекцию по границам кадра.
// Рамка округляется вниз до пикселей и обрезается по bounds; вырожденная
// после обрезки рамка и уверенность вне [0,1] отклоняются.
func NewDetection(raw RawDetection, label string, bounds image.Rectangle) (Detection, error) {
	if math.IsNaN(raw.Confidence) || raw.Confidence < 0 || raw.Confidence > 1 {
		return Detection{}, fmt.Errorf("confidence %v outside [0,1]", raw.Confidence)
	}
	for _, v := range []float64{raw.X1, raw.Y1, raw.X2, raw.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Detection{}, fmt.Errorf("box coordinate %v is not finite", v)
		}
	}

	// обрезка до перевода в int: значение вне диапазона int не переводится
	x1 := clamp(raw.X1, bounds.Min.X, bounds.Max.X)
	y1 := clamp(raw.Y1, bounds.Min.Y, bounds.Max.Y)
	x2 := clamp(raw.X2, bounds.Min.X, bounds.Max.X)
	y2 := clamp(raw.Y2, bounds.Min.Y, bounds.Max.Y)

	// image.Rect молча поменял бы углы местами
	if x1 >= x2 || y1 >= y2 {
		return Detection{}, fmt.Errorf("degenerate box (%d,%d)-(%d,%d)", x1, y1, x2, y2)
	}

	return Detection{
		Box:        image.Rectangle{Min: image.Pt(x1, y1), Max: image.Pt(x2, y2)},
		ClassID:    raw.ClassID,
		Label:      label,
		Confidence: raw.Confidence,
	}, nil
}

// Center возвращает центр рамки
func (d Detection) Center() image.Point {
	return image.Pt((d.Box.Min.X+d.Box.Max.X)/2, (d.Box.Min.Y+d.Box.Max.Y)/2)
}

func clamp(v float64, lo, hi int) int {
	return int(math.Floor(math.Max(float64(lo), math.Min(float64(hi), v))))
}
