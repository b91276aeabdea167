package port

// Process запущенный процесс детекции
type Process interface {
	PID() int
	// Wait ждёт завершения процесса
	Wait() error
}

// Launcher запускает сессии детекции отдельными процессами
type Launcher interface {
	Start() (Process, error)
	// Strategy имя стратегии запуска: "direct" или "shell"
	Strategy() string
}
