package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// Options параметры подписи
type Options struct {
	FontSize  float64 // размер шрифта в пунктах
	Padding   int     // отступ текста от края фона подписи
	Precision *int    // знаков после запятой у уверенности, nil: 2
}

// Annotator рисует рамки и подписи прямо в буфере кадра.
type Annotator struct {
	face      font.Face
	opts      Options
	precision int
}

// NewAnnotator создаёт рендерер со шрифтом Go Regular
func NewAnnotator(opts Options) (*Annotator, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = 14
	}
	if opts.Padding <= 0 {
		opts.Padding = 5
	}
	precision := 2
	if opts.Precision != nil {
		if *opts.Precision < 0 {
			return nil, fmt.Errorf("label precision %d is negative", *opts.Precision)
		}
		precision = *opts.Precision
	}

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	return &Annotator{
		face:      truetype.NewFace(ttf, &truetype.Options{Size: opts.FontSize}),
		opts:      opts,
		precision: precision,
	}, nil
}

// Render рисует рамку цветом стиля и подпись "<метка> <уверенность>" над ней.
// Подпись не выходит за верхний и боковые края кадра.
func (a *Annotator) Render(frame *entity.Frame, d entity.Detection, style entity.RenderStyle) error {
	if frame.Empty() {
		return errors.New("render: empty frame")
	}

	thickness := style.Thickness
	if thickness < 1 {
		thickness = 1
	}

	dc := gg.NewContextForRGBA(frame.Image)

	box := d.Box
	dc.SetColor(style.Color)
	dc.SetLineWidth(float64(thickness))
	dc.DrawRectangle(float64(box.Min.X), float64(box.Min.Y), float64(box.Dx()), float64(box.Dy()))
	dc.Stroke()

	text := Label(d, a.precision)
	dc.SetFontFace(a.face)
	tw, th := dc.MeasureString(text)

	bg := labelRect(box, int(math.Ceil(tw)), int(math.Ceil(th)), a.opts.Padding, frame.Bounds())
	dc.SetColor(style.Color)
	dc.DrawRectangle(float64(bg.Min.X), float64(bg.Min.Y), float64(bg.Dx()), float64(bg.Dy()))
	dc.Fill()

	dc.SetColor(style.LabelColor)
	dc.DrawStringAnchored(text, float64(bg.Min.X+a.opts.Padding), float64(bg.Min.Y+a.opts.Padding), 0, 1)

	return nil
}

// Label форматирует подпись детекции
func Label(d entity.Detection, precision int) string {
	return fmt.Sprintf("%s %.*f", d.Label, precision, d.Confidence)
}

// labelRect размещает фон подписи над рамкой. Верх не поднимается выше
// края кадра, подпись сдвигается влево, если не помещается справа.
func labelRect(box image.Rectangle, textW, textH, pad int, bounds image.Rectangle) image.Rectangle {
	w := textW + 2*pad
	h := textH + 2*pad

	left := box.Min.X
	if left+w > bounds.Max.X {
		left = bounds.Max.X - w
	}
	if left < bounds.Min.X {
		left = bounds.Min.X
	}

	top := box.Min.Y - h
	if top < bounds.Min.Y {
		top = bounds.Min.Y
	}

	return image.Rect(left, top, left+w, top+h)
}

var _ port.Renderer = (*Annotator)(nil)
