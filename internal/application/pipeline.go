package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/policy"
)

type captured struct {
	frame *entity.Frame
	err   error
}

// runPipelined читает кадры в отдельной горутине через ограниченную очередь.
// При переполнении выбрасывается самый старый кадр, порядок кадров сохраняется.
func (s *Session) runPipelined(ctx context.Context, pol *policy.Policy, stats *entity.SessionStats) error {
	cctx, cancel := context.WithCancel(ctx)
	queue := make(chan captured, s.cfg.QueueSize)

	var (
		wg      sync.WaitGroup
		evicted atomic.Int64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(queue)
		s.capture(cctx, queue, &evicted)
	}()

	// источник закрывается только после выхода горутины захвата
	defer func() {
		cancel()
		for range queue {
		}
		wg.Wait()
		n := int(evicted.Load())
		stats.FramesDropped += n
		for i := 0; i < n; i++ {
			s.metrics.FrameDropped()
		}
	}()

	for {
		if s.stopRequested(ctx) {
			stats.Reason = entity.StopRequested
			return nil
		}

		var item captured
		select {
		case <-ctx.Done():
			stats.Reason = entity.StopRequested
			return nil
		case got, ok := <-queue:
			if !ok {
				stats.Reason = entity.StopRequested
				return nil
			}
			item = got
		}

		done, err := s.handleRead(ctx, item.frame, item.err, stats)
		if done {
			return err
		}
		if item.frame == nil {
			continue
		}

		s.process(ctx, item.frame, pol, stats)
	}
}

// capture: производитель. Завершается после конца потока, отказа устройства или отмены.
func (s *Session) capture(ctx context.Context, queue chan captured, evicted *atomic.Int64) {
	for ctx.Err() == nil {
		frame, err := s.source.Next(ctx)
		if ctx.Err() != nil {
			return
		}
		item := captured{frame: frame, err: err}

		if err != nil && !errors.Is(err, entity.ErrFrameUnavailable) {
			// терминальная ошибка доставляется без вытеснения
			select {
			case queue <- item:
			case <-ctx.Done():
			}
			return
		}

		select {
		case queue <- item:
			continue
		default:
		}

		// очередь полна: выбрасываем самый старый элемент
		select {
		case <-queue:
			evicted.Add(1)
		default:
		}
		select {
		case queue <- item:
		case <-ctx.Done():
			return
		}
	}
}
