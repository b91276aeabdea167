package vision

import (
	"image"
	"image/draw"
)

// toRGBA возвращает изображение как *image.RGBA с началом в (0,0),
// копируя пиксели, только если это необходимо.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// isDeviceIndex сообщает, что источник: номер камеры, а не путь
func isDeviceIndex(source string) bool {
	if source == "" {
		return false
	}
	for _, r := range source {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
