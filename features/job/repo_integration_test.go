package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotag/features/job"
	"autotag/internal/testutils"
)

func TestJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := job.NewPostgresRepo(s.DB)
	ctx := context.Background()

	f1 := &job.Failure{Hash: "h1", Path: "p1", Filename: "a.pdf", Stage: job.StageExtract, Error: "bad pdf"}
	require.NoError(t, repo.Record(ctx, f1))
	assert.Equal(t, 1, f1.Attempts)

	time.Sleep(100 * time.Millisecond)

	f2 := &job.Failure{Hash: "h2", Path: "p2", Filename: "b.png", Stage: job.StageDescribe, Error: "timeout"}
	require.NoError(t, repo.Record(ctx, f2))

	// Repeat failure upserts and bumps attempts.
	time.Sleep(100 * time.Millisecond)
	again := &job.Failure{Hash: "h1", Path: "p1", Filename: "a.pdf", Stage: job.StageTag, Error: "empty response"}
	require.NoError(t, repo.Record(ctx, again))
	assert.Equal(t, 2, again.Attempts)
	assert.Equal(t, f1.FirstFailedAt.Unix(), again.FirstFailedAt.Unix())

	failures, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "h1", failures[0].Hash, "most recently failed first")
	assert.Equal(t, job.StageTag, failures[0].Stage)

	require.NoError(t, repo.DeleteByHash(ctx, "h1"))
	failures, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "h2", failures[0].Hash)
}
