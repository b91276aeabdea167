package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/port"
)

const (
	StrategyDirect = entity.LaunchDirect
	StrategyShell  = entity.LaunchShell
)

// Launcher запускает детектор отдельным процессом. На Windows процесс
// открывается в новом окне консоли через "cmd /C start", на остальных
// системах бинарник запускается напрямую.
// При StrategyShell PID и Wait относятся к обёртке cmd, а не к детектору:
// обёртка выходит сразу, и завершение сессии отследить нельзя.
type Launcher struct {
	bin  string
	args []string
	goos string
}

// New создаёт запускатель для текущей ОС
func New(bin string, args []string) *Launcher {
	return newForOS(bin, args, runtime.GOOS)
}

func newForOS(bin string, args []string, goos string) *Launcher {
	return &Launcher{bin: bin, args: args, goos: goos}
}

// Strategy возвращает стратегию запуска
func (l *Launcher) Strategy() string {
	if l.goos == "windows" {
		return StrategyShell
	}
	return StrategyDirect
}

// Start запускает процесс и не ждёт его завершения
func (l *Launcher) Start() (port.Process, error) {
	cmd := l.command()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.bin, err)
	}
	return &process{cmd: cmd}, nil
}

func (l *Launcher) command() *exec.Cmd {
	var cmd *exec.Cmd
	if l.Strategy() == StrategyShell {
		// пустая строка: заголовок окна для start
		args := append([]string{"/C", "start", "", l.bin}, l.args...)
		cmd = exec.Command("cmd", args...)
	} else {
		cmd = exec.Command(l.bin, l.args...)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

type process struct {
	cmd *exec.Cmd
}

func (p *process) PID() int {
	return p.cmd.Process.Pid
}

func (p *process) Wait() error {
	return p.cmd.Wait()
}

var _ port.Launcher = (*Launcher)(nil)
