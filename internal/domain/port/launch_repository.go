package port

import (
	"context"
	"time"

	"safety-vision/internal/domain/entity"
)

// LaunchRepository интерфейс хранилища запусков
type LaunchRepository interface {
	// Save сохраняет запуск
	Save(ctx context.Context, launch *entity.Launch) error

	// Get возвращает запуск по ID
	Get(ctx context.Context, id string) (*entity.Launch, error)

	// MarkExited отмечает завершение процесса
	MarkExited(ctx context.Context, id string, at time.Time, exitErr error) error

	// List возвращает все запуски, начиная с самого раннего
	List(ctx context.Context) ([]entity.Launch, error)
}
