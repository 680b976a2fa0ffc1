package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeWrapsPayload(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	env, err := NewEnvelope("odyssey-pos", "sale.recorded", at, map[string]any{"sale_id": 7})
	require.NoError(t, err)
	require.NotEmpty(t, env.EventID)
	require.Equal(t, "sale.recorded", env.EventType)
	require.Equal(t, 1, env.EventVersion)
	require.Equal(t, time.UTC, env.OccurredAt.Location())

	var payload map[string]int
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, 7, payload["sale_id"])
}

func TestNilProducerIsNoop(t *testing.T) {
	var p *Producer
	require.NoError(t, p.Publish(context.Background(), "pos.sales", "1", "sale.recorded", nil))
	require.NoError(t, p.Close())
}
