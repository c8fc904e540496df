package repositories

import (
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgedao/forgeboard/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

func recordActivity(t *testing.T, repo *EventActivityRepository, participationID, activityType, sha string, added, deleted, score int, when time.Time) {
	t.Helper()

	a := models.NewEventActivity(participationID, "event-1", "user-1", activityType)
	a.GithubSHA = sha
	a.LinesAdded = added
	a.LinesDeleted = deleted
	a.ScoreEarned = score
	a.ActivityDate = when
	require.NoError(t, repo.Create(a))
}

func TestGetParticipationStatsEmpty(t *testing.T) {
	repo := NewEventActivityRepository(newTestDB(t))

	stats, err := repo.GetParticipationStats("p1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCommits)
	assert.Zero(t, stats.TotalPRs)
	assert.Zero(t, stats.Score)
	assert.Nil(t, stats.LastActivityDate)
}

func TestGetParticipationStatsRecompute(t *testing.T) {
	repo := NewEventActivityRepository(newTestDB(t))

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	recordActivity(t, repo, "p1", models.ActivityCommit, "sha1", 10, 2, 3, base)
	recordActivity(t, repo, "p1", models.ActivityCommit, "sha2", 5, 0, 3, base.Add(time.Hour))
	recordActivity(t, repo, "p1", models.ActivityPRCreated, "7", 0, 0, 10, base.Add(2*time.Hour))
	recordActivity(t, repo, "p1", models.ActivityPRMerged, "7", 0, 0, 20, base.Add(3*time.Hour))
	recordActivity(t, repo, "p2", models.ActivityCommit, "sha3", 100, 0, 12, base.Add(4*time.Hour))

	stats, err := repo.GetParticipationStats("p1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCommits)
	assert.Equal(t, 2, stats.TotalPRs, "created and merged PRs both count")
	assert.Equal(t, 15, stats.LinesAdded)
	assert.Equal(t, 2, stats.LinesDeleted)
	assert.Equal(t, 36, stats.Score)
	require.NotNil(t, stats.LastActivityDate)
	assert.WithinDuration(t, base.Add(3*time.Hour), *stats.LastActivityDate, time.Second)
}

func TestActivityExistsAfterCreate(t *testing.T) {
	repo := NewEventActivityRepository(newTestDB(t))

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	recordActivity(t, repo, "p1", models.ActivityCommit, "sha1", 0, 0, 2, base)

	exists, err := repo.Exists("p1", models.ActivityCommit, "sha1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists("p1", models.ActivityPRCreated, "sha1")
	require.NoError(t, err)
	assert.False(t, exists, "identity includes the activity type")
}
