package entity

import "fmt"

// SessionState состояние сессии
type SessionState int32

const (
	SessionStarting SessionState = iota
	SessionRunning
	SessionDraining
	SessionTerminated
)

func (s SessionState) String() string {
	switch s {
	case SessionStarting:
		return "starting"
	case SessionRunning:
		return "running"
	case SessionDraining:
		return "draining"
	case SessionTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// StopReason причина выхода сессии из Running
type StopReason string

const (
	StopNone          StopReason = ""
	StopRequested     StopReason = "stop_requested"
	StopEndOfStream   StopReason = "end_of_stream"
	StopCaptureFailed StopReason = "capture_failed"
	StopStartupFailed StopReason = "startup_failed"
)

// SessionStats итоги одной сессии
type SessionStats struct {
	SessionID          string
	FramesPresented    int
	FramesDropped      int
	InferenceFailures  int
	DetectionsRendered int
	Alerts             int
	Reason             StopReason
}
