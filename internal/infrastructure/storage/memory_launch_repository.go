package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// MemoryLaunchRepository in-memory хранилище запусков
type MemoryLaunchRepository struct {
	mu       sync.RWMutex
	launches map[string]*entity.Launch
}

// NewMemoryLaunchRepository создаёт новое in-memory хранилище
func NewMemoryLaunchRepository() *MemoryLaunchRepository {
	return &MemoryLaunchRepository{
		launches: make(map[string]*entity.Launch),
	}
}

// Save сохраняет копию запуска
func (r *MemoryLaunchRepository) Save(ctx context.Context, launch *entity.Launch) error {
	copied := *launch

	r.mu.Lock()
	r.launches[launch.ID] = &copied
	r.mu.Unlock()

	return nil
}

// Get возвращает запуск по ID
func (r *MemoryLaunchRepository) Get(ctx context.Context, id string) (*entity.Launch, error) {
	r.mu.RLock()
	launch, exists := r.launches[id]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("launch %s not found", id)
	}

	copied := *launch
	return &copied, nil
}

// MarkExited отмечает завершение процесса
func (r *MemoryLaunchRepository) MarkExited(ctx context.Context, id string, at time.Time, exitErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	launch, exists := r.launches[id]
	if !exists {
		return fmt.Errorf("launch %s not found", id)
	}

	launch.ExitedAt = at
	if exitErr != nil {
		launch.ExitErr = exitErr.Error()
	}

	return nil
}

// List возвращает все запуски по времени старта
func (r *MemoryLaunchRepository) List(ctx context.Context) ([]entity.Launch, error) {
	r.mu.RLock()
	out := make([]entity.Launch, 0, len(r.launches))
	for _, l := range r.launches {
		out = append(out, *l)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// Проверка реализации интерфейса
var _ port.LaunchRepository = (*MemoryLaunchRepository)(nil)
