package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"safety-vision/internal/domain/entity"
)

type fakeLaunches struct {
	launch   *entity.Launch
	err      error
	started  int
	launches []entity.Launch
}

func (f *fakeLaunches) Start(ctx context.Context) (*entity.Launch, error) {
	f.started++
	if f.err != nil {
		return nil, f.err
	}
	return f.launch, nil
}

func (f *fakeLaunches) List(ctx context.Context) ([]entity.Launch, error) {
	return f.launches, nil
}

func serve(t *testing.T, launches Launches, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", "http://dashboard.local")
	NewTrigger(launches, zaptest.NewLogger(t).Sugar()).Handler().ServeHTTP(rec, req)
	return rec
}

func TestTrigger_StartDetection(t *testing.T) {
	for _, path := range []string{"/start-detection", "/detection"} {
		t.Run(path, func(t *testing.T) {
			launches := &fakeLaunches{launch: &entity.Launch{ID: "abc", PID: 99}}

			rec := serve(t, launches, http.MethodGet, path)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, msgStarted, body["message"])
			require.Equal(t, "abc", body["launch_id"])
			require.Equal(t, 1, launches.started)
		})
	}
}

func TestTrigger_StartFailure(t *testing.T) {
	launches := &fakeLaunches{err: &entity.LaunchError{Strategy: "direct", Err: errors.New("executable file not found")}}

	rec := serve(t, launches, http.MethodGet, "/start-detection")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body["error"], "executable file not found")
}

func TestTrigger_MethodNotAllowed(t *testing.T) {
	launches := &fakeLaunches{}

	rec := serve(t, launches, http.MethodPost, "/start-detection")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
	require.Zero(t, launches.started)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["error"])
}

func TestTrigger_Launches(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	launches := &fakeLaunches{launches: []entity.Launch{
		{ID: "a", PID: 1, Strategy: "direct", StartedAt: started, ExitedAt: started.Add(time.Minute), ExitErr: "exit status 1"},
		{ID: "b", PID: 2, Strategy: "direct", StartedAt: started.Add(time.Second)},
		{ID: "c", PID: 3, Strategy: "shell", StartedAt: started.Add(2 * time.Second), ExitedAt: started.Add(3 * time.Second)},
	}}

	rec := serve(t, launches, http.MethodGet, "/launches")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []launchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 3)
	require.True(t, body[0].Tracked)
	require.NotNil(t, body[0].Running)
	require.False(t, *body[0].Running)
	require.NotNil(t, body[0].ExitedAt)
	require.Equal(t, "exit status 1", body[0].ExitError)
	require.NotNil(t, body[1].Running)
	require.True(t, *body[1].Running)
	require.Nil(t, body[1].ExitedAt)
}

// PID при запуске через cmd принадлежит обёртке: её выход не конец сессии
func TestTrigger_LaunchesShellStrategyIsUntracked(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	launches := &fakeLaunches{launches: []entity.Launch{
		{ID: "c", PID: 3, Strategy: "shell", StartedAt: started, ExitedAt: started.Add(time.Second)},
	}}

	rec := serve(t, launches, http.MethodGet, "/launches")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	require.Equal(t, false, raw[0]["tracked"])
	require.NotContains(t, raw[0], "running")
	require.NotContains(t, raw[0], "exited_at")
	require.Equal(t, "shell", raw[0]["strategy"])
}

func TestTrigger_Health(t *testing.T) {
	rec := serve(t, &fakeLaunches{}, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"ok"}`, rec.Body.String())
}
