//go:build integration

package embedding

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.EmbedProvider = config.ProviderOllama

	h := NewHandle(FromConfig(cfg), nil)
	e, err := h.Get(ctx)
	require.NoError(t, err, "ollama must be running with %s pulled", cfg.EmbedModel)

	vectors, err := e.EmbedBatch(ctx, []string{"Where is the venue?", "Hall 3 on the ground floor."})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	var sum float64
	for _, v := range vectors[0] {
		sum += math.Abs(float64(v))
	}
	assert.Greater(t, sum, 0.0, "embedding should not be all zeros")
}
