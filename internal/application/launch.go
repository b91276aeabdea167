package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

// LaunchService запускает сессии детекции отдельными процессами и следит за их завершением.
type LaunchService struct {
	launcher port.Launcher
	repo     port.LaunchRepository
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewLaunchService создаёт сервис запуска
func NewLaunchService(launcher port.Launcher, repo port.LaunchRepository, logger *zap.SugaredLogger) *LaunchService {
	return &LaunchService{
		launcher: launcher,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
}

// Start запускает процесс и сразу возвращается. Ошибка запуска возвращается
// как *entity.LaunchError и не влияет на уже запущенные сессии.
func (s *LaunchService) Start(ctx context.Context) (*entity.Launch, error) {
	strategy := s.launcher.Strategy()

	proc, err := s.launcher.Start()
	if err != nil {
		s.logger.Errorw("failed to launch detection", "strategy", strategy, "error", err)
		return nil, &entity.LaunchError{Strategy: strategy, Err: err}
	}

	launch := &entity.Launch{
		ID:        uuid.NewString(),
		PID:       proc.PID(),
		Strategy:  strategy,
		StartedAt: s.now(),
	}
	if err := s.repo.Save(ctx, launch); err != nil {
		// процесс уже запущен, запись о нём не критична
		s.logger.Warnw("failed to record launch", "pid", launch.PID, "error", err)
	}
	s.logger.Infow("detection launched", "launch", launch.ID, "pid", launch.PID, "strategy", strategy)

	go s.reap(launch.ID, proc)

	copied := *launch
	return &copied, nil
}

// List возвращает известные запуски
func (s *LaunchService) List(ctx context.Context) ([]entity.Launch, error) {
	return s.repo.List(ctx)
}

// reap ждёт завершения процесса, чтобы не оставлять зомби
func (s *LaunchService) reap(id string, proc port.Process) {
	waitErr := proc.Wait()
	if err := s.repo.MarkExited(context.Background(), id, s.now(), waitErr); err != nil {
		s.logger.Warnw("failed to record exit", "launch", id, "error", err)
	}
	s.logger.Infow("detection process exited", "launch", id, "pid", proc.PID(), "error", waitErr)
}
