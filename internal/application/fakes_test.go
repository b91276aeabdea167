package app

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"safety-vision/internal/domain/entity"
)

// read один шаг сценария источника
type read struct {
	frame *entity.Frame
	err   error
	block bool // ждать отмены контекста чтения
}

type fakeSource struct {
	mu     sync.Mutex
	script []read
	reads  atomic.Int32
	closed atomic.Int32
}

func newFakeSource(script ...read) *fakeSource {
	return &fakeSource{script: script}
}

func (s *fakeSource) Next(ctx context.Context) (*entity.Frame, error) {
	s.reads.Add(1)

	s.mu.Lock()
	if len(s.script) == 0 {
		s.mu.Unlock()
		return nil, entity.ErrEndOfStream
	}
	step := s.script[0]
	s.script = s.script[1:]
	s.mu.Unlock()

	if step.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return step.frame, step.err
}

func (s *fakeSource) Close() error {
	s.closed.Add(1)
	return nil
}

// prediction ответ модели на один вызов Predict
type prediction struct {
	raws  []entity.RawDetection
	err   error
	delay time.Duration
}

type fakeModel struct {
	labels []string

	mu      sync.Mutex
	script  []prediction
	calls   int
	closed  atomic.Int32
	lastMin float64
}

func newFakeModel(labels []string, script ...prediction) *fakeModel {
	return &fakeModel{labels: labels, script: script}
}

func (m *fakeModel) Labels() []string { return m.labels }

func (m *fakeModel) Predict(ctx context.Context, img *image.RGBA, minConfidence float64) ([]entity.RawDetection, error) {
	m.mu.Lock()
	m.calls++
	m.lastMin = minConfidence
	var p prediction
	if len(m.script) > 0 {
		p = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.raws, p.err
}

func (m *fakeModel) Close() error {
	m.closed.Add(1)
	return nil
}

func (m *fakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingDisplay сохраняет копии показанных кадров
type recordingDisplay struct {
	mu        sync.Mutex
	frames    []*entity.Frame
	stopAfter int
	closed    atomic.Int32
}

func (d *recordingDisplay) Present(frame *entity.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frame.Clone())
	return nil
}

func (d *recordingDisplay) StopRequested() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopAfter > 0 && len(d.frames) >= d.stopAfter
}

func (d *recordingDisplay) Close() error {
	d.closed.Add(1)
	return nil
}

func (d *recordingDisplay) Presented() []*entity.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*entity.Frame(nil), d.frames...)
}

type rendered struct {
	seq   uint64
	label string
	style entity.RenderStyle
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []rendered
}

func (r *recordingRenderer) Render(frame *entity.Frame, d entity.Detection, style entity.RenderStyle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rendered{seq: frame.Seq, label: d.Label, style: style})
	return nil
}

type countingMetrics struct {
	states    []entity.SessionState
	presented int
	dropped   int
	completed int
	failed    int
	byCat     map[entity.Category]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{byCat: make(map[entity.Category]int)}
}

func (m *countingMetrics) StateChanged(s entity.SessionState) { m.states = append(m.states, s) }
func (m *countingMetrics) FramePresented(time.Duration) { m.presented++ }
func (m *countingMetrics) FrameDropped() { m.dropped++ }
func (m *countingMetrics) InferenceCompleted(time.Duration) { m.completed++ }
func (m *countingMetrics) InferenceFailed() { m.failed++ }
func (m *countingMetrics) DetectionRendered(c entity.Category) { m.byCat[c]++ }

// blackFrame непрозрачный чёрный кадр w x h
func blackFrame(w, h int) *entity.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{A: 255}}, image.Point{}, draw.Src)
	return entity.NewFrame(img, time.Time{})
}

func frames(n, w, h int) []read {
	out := make([]read, n)
	for i := range out {
		out[i] = read{frame: blackFrame(w, h)}
	}
	return out
}
