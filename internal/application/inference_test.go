package app

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"safety-vision/internal/domain/entity"
)

var testLabels = []string{"Hardhat", "NO-Hardhat", "Person"}

func collect(t *testing.T, a *InferenceAdapter, frame *entity.Frame, threshold float64) []entity.Detection {
	t.Helper()
	seq, err := a.Infer(context.Background(), frame, threshold)
	require.NoError(t, err)
	var out []entity.Detection
	for d := range seq {
		out = append(out, d)
	}
	return out
}

func TestInferenceAdapter_ThresholdIsInclusive(t *testing.T) {
	model := newFakeModel(testLabels, prediction{raws: []entity.RawDetection{
		{X1: 1, Y1: 1, X2: 10, Y2: 10, ClassID: 0, Confidence: 0.5},
		{X1: 1, Y1: 1, X2: 10, Y2: 10, ClassID: 1, Confidence: 0.49},
		{X1: 1, Y1: 1, X2: 10, Y2: 10, ClassID: 2, Confidence: 0.51},
	}})
	a := NewInferenceAdapter(model, 0)

	got := collect(t, a, blackFrame(20, 20), 0.5)
	require.Len(t, got, 2)
	require.Equal(t, "Hardhat", got[0].Label)
	require.Equal(t, "Person", got[1].Label)
	require.Equal(t, 0.5, model.lastMin)
}

func TestInferenceAdapter_NoObjectsIsNotAnError(t *testing.T) {
	a := NewInferenceAdapter(newFakeModel(testLabels, prediction{}), 0)

	require.Empty(t, collect(t, a, blackFrame(20, 20), 0.25))
}

func TestInferenceAdapter_ModelFailure(t *testing.T) {
	boom := errors.New("backend crashed")
	a := NewInferenceAdapter(newFakeModel(testLabels, prediction{err: boom}), 0)
	frame := blackFrame(20, 20)
	frame.Seq = 7

	seq, err := a.Infer(context.Background(), frame, 0.25)
	require.Nil(t, seq)

	var inferenceErr *entity.InferenceError
	require.ErrorAs(t, err, &inferenceErr)
	require.Equal(t, uint64(7), inferenceErr.FrameSeq)
	require.ErrorIs(t, err, boom)
}

func TestInferenceAdapter_RejectsBadInput(t *testing.T) {
	model := newFakeModel(testLabels)
	a := NewInferenceAdapter(model, 0)
	var inferenceErr *entity.InferenceError

	_, err := a.Infer(context.Background(), &entity.Frame{}, 0.25)
	require.ErrorAs(t, err, &inferenceErr)

	_, err = a.Infer(context.Background(), blackFrame(4, 4), 1.5)
	require.ErrorAs(t, err, &inferenceErr)

	_, err = a.Infer(context.Background(), blackFrame(4, 4), -0.1)
	require.ErrorAs(t, err, &inferenceErr)

	require.Zero(t, model.Calls())
}

func TestInferenceAdapter_DropsMalformedDetections(t *testing.T) {
	model := newFakeModel(testLabels, prediction{raws: []entity.RawDetection{
		{X1: 1, Y1: 1, X2: 10, Y2: 10, ClassID: 9, Confidence: 0.9},  // нет такой метки
		{X1: 10, Y1: 10, X2: 10, Y2: 30, ClassID: 0, Confidence: 0.9}, // нулевая ширина
		{X1: 30, Y1: 30, X2: 40, Y2: 40, ClassID: 0, Confidence: 0.9}, // целиком за кадром
		{X1: -5, Y1: -5, X2: 25, Y2: 8, ClassID: 1, Confidence: 0.9},
	}})
	a := NewInferenceAdapter(model, 0)

	got := collect(t, a, blackFrame(20, 20), 0.25)
	require.Len(t, got, 1)
	require.Equal(t, image.Rect(0, 0, 20, 8), got[0].Box)
	require.Equal(t, int64(3), a.Dropped())
}

func TestInferenceAdapter_SequenceIsSinglePass(t *testing.T) {
	model := newFakeModel(testLabels, prediction{raws: []entity.RawDetection{
		{X1: 1, Y1: 1, X2: 10, Y2: 10, ClassID: 0, Confidence: 0.9},
		{X1: 2, Y1: 2, X2: 12, Y2: 12, ClassID: 2, Confidence: 0.8},
	}})
	a := NewInferenceAdapter(model, 0)

	seq, err := a.Infer(context.Background(), blackFrame(20, 20), 0.25)
	require.NoError(t, err)

	first := 0
	for range seq {
		first++
		break
	}
	second := 0
	for range seq {
		second++
	}
	require.Equal(t, 1, first)
	require.Zero(t, second)
}

func TestInferenceAdapter_Deadline(t *testing.T) {
	model := newFakeModel(testLabels, prediction{delay: 50 * time.Millisecond})
	a := NewInferenceAdapter(model, 5*time.Millisecond)

	_, err := a.Infer(context.Background(), blackFrame(4, 4), 0.25)
	var inferenceErr *entity.InferenceError
	require.ErrorAs(t, err, &inferenceErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInferenceAdapter_CloseOnce(t *testing.T) {
	model := newFakeModel(testLabels)
	a := NewInferenceAdapter(model, 0)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	require.Equal(t, int32(1), model.closed.Load())
}
