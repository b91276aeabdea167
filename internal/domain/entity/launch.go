package entity

import "time"

// Стратегии запуска детектора
const (
	LaunchDirect = "direct"
	LaunchShell  = "shell"
)

// Launch запись о процессе детекции, запущенном триггер-сервисом
type Launch struct {
	ID        string
	PID       int
	Strategy  string
	StartedAt time.Time
	ExitedAt  time.Time // нулевое, пока процесс жив
	ExitErr   string    // пусто при чистом выходе
}

// Running сообщает, что процесс ещё не завершился
func (l Launch) Running() bool {
	return l.ExitedAt.IsZero()
}

// Tracked сообщает, что PID принадлежит самому детектору. При запуске
// через "cmd /C start" PID принадлежит обёртке cmd, которая завершается
// сразу после открытия окна, и Running ничего не говорит о сессии.
func (l Launch) Tracked() bool {
	return l.Strategy != LaunchShell
}
