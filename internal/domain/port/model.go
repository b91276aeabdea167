package port

import (
	"context"
	"image"

	"safety-vision/internal/domain/entity"
)

// Model интерфейс модели детекции объектов
type Model interface {
	// Labels возвращает таблицу class id -> метка из артефакта модели
	Labels() []string

	// Predict запускает модель на изображении. minConfidence: подсказка:
	// модель может вернуть детекции ниже порога, но не должна терять те, что выше.
	Predict(ctx context.Context, img *image.RGBA, minConfidence float64) ([]entity.RawDetection, error)

	// Close освобождает загруженную модель
	Close() error
}
