package port

import "safety-vision/internal/domain/entity"

// Renderer интерфейс отрисовки детекций
type Renderer interface {
	// Render рисует одну детекцию прямо в буфере кадра
	Render(frame *entity.Frame, d entity.Detection, style entity.RenderStyle) error
}
