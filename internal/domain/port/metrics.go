package port

import (
	"time"

	"safety-vision/internal/domain/entity"
)

// SessionMetrics принимает покадровые наблюдения сессии
type SessionMetrics interface {
	StateChanged(state entity.SessionState)
	FramePresented(latency time.Duration)
	FrameDropped()
	InferenceCompleted(d time.Duration)
	InferenceFailed()
	DetectionRendered(category entity.Category)
}
