package telemetry

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func TestInitOtel_Disabled(t *testing.T) {
	shutdown, err := InitOtel(context.Background(), config.Telemetry{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NotNil(t, otel.GetTextMapPropagator())
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewResource(t *testing.T) {
	res, err := NewResource("tic-tac-toe-test")
	require.NoError(t, err)

	var found bool
	for _, kv := range res.Attributes() {
		if kv.Key == semconv.ServiceNameKey {
			found = true
			assert.Equal(t, "tic-tac-toe-test", kv.Value.AsString())
		}
	}
	assert.True(t, found, "service.name attribute missing")
}
