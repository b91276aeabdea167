package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"safety-vision/internal/domain/entity"
)

const msgStarted = "YOLO detection started in a new window."

// Launches сценарии запуска сессий, нужные HTTP-слою
type Launches interface {
	Start(ctx context.Context) (*entity.Launch, error)
	List(ctx context.Context) ([]entity.Launch, error)
}

// Trigger HTTP-сервис, запускающий сессии детекции по запросу
type Trigger struct {
	launches Launches
	logger   *zap.SugaredLogger
}

// NewTrigger создаёт сервис
func NewTrigger(launches Launches, logger *zap.SugaredLogger) *Trigger {
	return &Trigger{launches: launches, logger: logger}
}

type messageResponse struct {
	Message  string `json:"message"`
	LaunchID string `json:"launch_id,omitempty"`
	PID      int    `json:"pid,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type launchResponse struct {
	ID        string     `json:"id"`
	PID       int        `json:"pid"`
	Strategy  string     `json:"strategy"`
	StartedAt time.Time  `json:"started_at"`
	Tracked   bool       `json:"tracked"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"` // только для отслеживаемых запусков
	Running   *bool      `json:"running,omitempty"`
	ExitError string     `json:"exit_error,omitempty"`
}

// Handler возвращает маршруты с CORS для любого источника
func (t *Trigger) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/start-detection", t.getOnly(t.handleStart))
	mux.HandleFunc("/detection", t.getOnly(t.handleStart))
	mux.HandleFunc("/launches", t.getOnly(t.handleLaunches))
	mux.HandleFunc("/healthz", t.getOnly(t.handleHealth))

	return cors.AllowAll().Handler(mux)
}

// Run слушает addr до отмены контекста
func (t *Trigger) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	t.logger.Infow("trigger service listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleStart запускает детектор и сразу отвечает
func (t *Trigger) handleStart(w http.ResponseWriter, r *http.Request) {
	launch, err := t.launches.Start(r.Context())
	if err != nil {
		t.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	t.writeJSON(w, http.StatusOK, messageResponse{
		Message:  msgStarted,
		LaunchID: launch.ID,
		PID:      launch.PID,
	})
}

func (t *Trigger) handleLaunches(w http.ResponseWriter, r *http.Request) {
	launches, err := t.launches.List(r.Context())
	if err != nil {
		t.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	out := make([]launchResponse, 0, len(launches))
	for _, l := range launches {
		resp := launchResponse{
			ID:        l.ID,
			PID:       l.PID,
			Strategy:  l.Strategy,
			StartedAt: l.StartedAt,
			Tracked:   l.Tracked(),
			ExitError: l.ExitErr,
		}
		if l.Tracked() {
			running := l.Running()
			resp.Running = &running
			if !running {
				exited := l.ExitedAt
				resp.ExitedAt = &exited
			}
		}
		out = append(out, resp)
	}
	t.writeJSON(w, http.StatusOK, out)
}

func (t *Trigger) handleHealth(w http.ResponseWriter, r *http.Request) {
	t.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

// getOnly отвечает 405 с JSON на всё, кроме GET
func (t *Trigger) getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			t.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method " + r.Method + " not allowed"})
			return
		}
		next(w, r)
	}
}

func (t *Trigger) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.logger.Warnw("failed to encode response", "error", err)
	}
}
