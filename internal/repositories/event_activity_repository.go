package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/forgedao/forgeboard/internal/models"
)

type EventActivityRepository struct {
	db *sql.DB
}

func NewEventActivityRepository(db *sql.DB) *EventActivityRepository {
	return &EventActivityRepository{db: db}
}

const activityColumns = `id, participation_id, event_id, user_id, activity_type,
	   github_sha, commit_message, files_changed, lines_added, lines_deleted,
	   score_earned, metadata, activity_date, created_at`

func scanActivity(row interface{ Scan(...any) error }) (*models.EventActivity, error) {
	a := &models.EventActivity{}
	var metadata string
	err := row.Scan(
		&a.ID, &a.ParticipationID, &a.EventID, &a.UserID, &a.ActivityType,
		&a.GithubSHA, &a.CommitMessage, &a.FilesChanged, &a.LinesAdded,
		&a.LinesDeleted, &a.ScoreEarned, &metadata, &a.ActivityDate, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := a.UnmarshalMetadata(metadata); err != nil {
		return nil, err
	}
	return a, nil
}

// Create creates a new activity record
func (r *EventActivityRepository) Create(a *models.EventActivity) error {
	metadata, err := a.MarshalMetadata()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO event_activities (
			id, participation_id, event_id, user_id, activity_type, github_sha,
			commit_message, files_changed, lines_added, lines_deleted,
			score_earned, metadata, activity_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		a.ID, a.ParticipationID, a.EventID, a.UserID, a.ActivityType, a.GithubSHA,
		a.CommitMessage, a.FilesChanged, a.LinesAdded, a.LinesDeleted,
		a.ScoreEarned, metadata, a.ActivityDate,
	)

	return err
}

// Exists reports whether an activity of the given type and SHA is
// already recorded for a participation
func (r *EventActivityRepository) Exists(participationID, activityType, githubSHA string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM event_activities WHERE participation_id = ? AND activity_type = ? AND github_sha = ?`,
		participationID, activityType, githubSHA,
	).Scan(&count)
	return count > 0, err
}

// GetByParticipation retrieves all activities of a participation,
// newest first
func (r *EventActivityRepository) GetByParticipation(participationID string) ([]*models.EventActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM event_activities
		WHERE participation_id = ?
		ORDER BY activity_date DESC
	`
	return r.queryActivities(query, participationID)
}

// GetByUser retrieves a user's recent activities across all events
func (r *EventActivityRepository) GetByUser(userID string, limit int) ([]*models.EventActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM event_activities
		WHERE user_id = ?
		ORDER BY activity_date DESC
		LIMIT ?
	`
	return r.queryActivities(query, userID, limit)
}

// GetEventFeed retrieves the newest activities across an event with the
// acting usernames attached
func (r *EventActivityRepository) GetEventFeed(eventID string, limit int) ([]*models.FeedEntry, error) {
	query := `
		SELECT a.id, a.participation_id, a.event_id, a.user_id, a.activity_type,
		       a.github_sha, a.commit_message, a.files_changed, a.lines_added,
		       a.lines_deleted, a.score_earned, a.metadata, a.activity_date,
		       a.created_at, u.username
		FROM event_activities a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = ?
		ORDER BY a.activity_date DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.FeedEntry
	for rows.Next() {
		e := &models.FeedEntry{}
		var metadata string
		err := rows.Scan(
			&e.ID, &e.ParticipationID, &e.EventID, &e.UserID, &e.ActivityType,
			&e.GithubSHA, &e.CommitMessage, &e.FilesChanged, &e.LinesAdded,
			&e.LinesDeleted, &e.ScoreEarned, &metadata, &e.ActivityDate,
			&e.CreatedAt, &e.Username,
		)
		if err != nil {
			return nil, err
		}
		if err := e.UnmarshalMetadata(metadata); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *EventActivityRepository) queryActivities(query string, args ...any) ([]*models.EventActivity, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*models.EventActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}

	return activities, rows.Err()
}

// GetParticipationStats recomputes the aggregate stats of a
// participation from its recorded activities
func (r *EventActivityRepository) GetParticipationStats(participationID string) (*models.ParticipationStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN activity_type = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN activity_type IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(lines_added), 0),
			COALESCE(SUM(lines_deleted), 0),
			COALESCE(SUM(score_earned), 0)
		FROM event_activities
		WHERE participation_id = ?
	`

	stats := &models.ParticipationStats{}
	err := r.db.QueryRow(query,
		models.ActivityCommit, models.ActivityPRCreated, models.ActivityPRMerged,
		participationID,
	).Scan(
		&stats.TotalCommits, &stats.TotalPRs, &stats.LinesAdded,
		&stats.LinesDeleted, &stats.Score,
	)
	if err != nil {
		return nil, err
	}

	// MAX(activity_date) has no declared column type, so the driver
	// cannot convert it back to a time. Read the newest row instead.
	var lastActivity time.Time
	err = r.db.QueryRow(`
		SELECT activity_date
		FROM event_activities
		WHERE participation_id = ?
		ORDER BY activity_date DESC
		LIMIT 1
	`, participationID).Scan(&lastActivity)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		stats.LastActivityDate = &lastActivity
	}

	return stats, nil
}

// GetUserActivityStats returns a user's total activity count and the
// count within the recent window
func (r *EventActivityRepository) GetUserActivityStats(userID string, since time.Time) (*models.UserActivityStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN activity_date >= ? THEN 1 ELSE 0 END), 0)
		FROM event_activities
		WHERE user_id = ?
	`

	stats := &models.UserActivityStats{}
	err := r.db.QueryRow(query, since, userID).Scan(&stats.Total, &stats.Recent)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
