package container

import (
	"context"
	"testing"

	"datalens/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresComponents(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := config.Load()
	require.NoError(t, err)

	c, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c.Processor)
	assert.NotNil(t, c.Sessions)
	assert.NotNil(t, c.SSEHub)
	assert.NotNil(t, c.Datasets)

	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&config.Config{})
	assert.Error(t, err)
}
