package entity

import (
	"image"
	"time"
)

// Frame кадр, принадлежащий одной итерации цикла обработки
type Frame struct {
	Seq        uint64      // порядковый номер в сессии
	CapturedAt time.Time   // время захвата
	Image      *image.RGBA // пиксели, на них рисует рендерер
}

// NewFrame создаёт кадр из буфера пикселей
func NewFrame(img *image.RGBA, capturedAt time.Time) *Frame {
	return &Frame{Image: img, CapturedAt: capturedAt}
}

// Bounds возвращает границы кадра (пустой прямоугольник, если изображения нет)
func (f *Frame) Bounds() image.Rectangle {
	if f == nil || f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Bounds()
}

// Empty сообщает, что в кадре нет пикселей
func (f *Frame) Empty() bool {
	return f.Bounds().Empty()
}

// Clone возвращает глубокую копию с собственным буфером
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{Seq: f.Seq, CapturedAt: f.CapturedAt}
	if f.Image != nil {
		img := &image.RGBA{
			Pix:    make([]uint8, len(f.Image.Pix)),
			Stride: f.Image.Stride,
			Rect:   f.Image.Rect,
		}
		copy(img.Pix, f.Image.Pix)
		out.Image = img
	}
	return out
}
