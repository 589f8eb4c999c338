package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinecompose-server/modules/common/config"
)

func TestInsertRenderHonorsCanceledContext(t *testing.T) {
	client, err := NewClient(&config.Config{
		SupabaseURL:        "http://127.0.0.1:1",
		SupabaseServiceKey: "test-key",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = client.InsertRender(ctx, RenderRecord{ResultID: "r1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
