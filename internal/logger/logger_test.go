package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"local", "dev", "prod"} {
		l, err := NewLogger(env, "")
		require.NoError(t, err, env)
		require.NotNil(t, l)
	}

	_, err := NewLogger("staging", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown environment")
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "warn")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger("prod", "loud")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid level")
}

func TestFromContext(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), l)
	require.Same(t, l, FromContext(ctx))
}
