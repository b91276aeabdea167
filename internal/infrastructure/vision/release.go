package vision

import (
	"time"

	"go.uber.org/zap"
)

// releaseWhenIdle освобождает ресурсы захвата только после завершения
// незавершённого чтения. Если чтение не закончилось за wait, освобождение
// передаётся фоновой горутине, а Close возвращается сразу: cgo-буфер,
// в который ещё пишет чтение, освобождать нельзя.
// done закрывается, когда release выполнен.
func releaseWhenIdle[T any](pending <-chan T, wait time.Duration, release func() error, logger *zap.SugaredLogger) (done <-chan struct{}, err error) {
	finished := make(chan struct{})
	if pending == nil {
		err = release()
		close(finished)
		return finished, err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-pending:
		err = release()
		close(finished)
		return finished, err
	case <-timer.C:
	}

	logger.Warnw("capture read still pending on close, deferring release", "wait", wait)
	go func() {
		defer close(finished)
		<-pending
		if err := release(); err != nil {
			logger.Warnw("deferred capture release failed", "error", err)
			return
		}
		logger.Infow("capture released after pending read")
	}()
	return finished, nil
}
