package job

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/ade-events/internal/storage"
)

func TestNew(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)

	a := New("harvest", store, storage.Keys{Dataset: "d"}, nil)
	b := New("harvest", store, storage.Keys{Dataset: "d"}, nil)

	_, err = uuid.Parse(a.RunID)
	assert.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.NotNil(t, a.Logger)
	assert.NotNil(t, a.Metrics)
	assert.NotSame(t, a.Metrics, b.Metrics)
	assert.False(t, a.Now().IsZero())
	assert.Equal(t, "d", a.Keys.Dataset)
}
