package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobRun(t *testing.T) {
	repo := setupClientDataDB(t)
	require.NoError(t, repo.Store("current_prices", "STALE", "x", -time.Hour))

	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())
	require.NoError(t, job.Run())

	data, err := repo.Get("current_prices", "STALE")
	require.NoError(t, err)
	assert.Nil(t, data)
}
