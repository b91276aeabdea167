//go:build !gocv
// +build !gocv

package container

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewDetector_WithoutGoCV(t *testing.T) {
	_, err := NewDetector(testConfig(t), zaptest.NewLogger(t).Sugar())
	require.ErrorContains(t, err, "gocv build tag is not enabled")
}
