package repositories

import (
	"database/sql"

	"github.com/forgedao/forgeboard/internal/models"
)

type EventParticipationRepository struct {
	db *sql.DB
}

func NewEventParticipationRepository(db *sql.DB) *EventParticipationRepository {
	return &EventParticipationRepository{db: db}
}

const participationColumns = `id, event_id, user_id, github_fork_url, branch_name,
	   participation_date, is_active, total_commits, total_prs, lines_added,
	   lines_deleted, score, last_activity_date, created_at, updated_at`

func scanParticipation(row interface{ Scan(...any) error }) (*models.EventParticipation, error) {
	p := &models.EventParticipation{}
	err := row.Scan(
		&p.ID, &p.EventID, &p.UserID, &p.GithubForkURL, &p.BranchName,
		&p.ParticipationDate, &p.IsActive, &p.TotalCommits, &p.TotalPRs,
		&p.LinesAdded, &p.LinesDeleted, &p.Score, &p.LastActivityDate,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create creates a new participation
func (r *EventParticipationRepository) Create(p *models.EventParticipation) error {
	query := `
		INSERT INTO event_participations (
			id, event_id, user_id, github_fork_url, branch_name, participation_date, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		p.ID, p.EventID, p.UserID, p.GithubForkURL, p.BranchName,
		p.ParticipationDate, p.IsActive,
	)

	return err
}

// GetByID retrieves a participation by ID
func (r *EventParticipationRepository) GetByID(id string) (*models.EventParticipation, error) {
	query := `SELECT ` + participationColumns + ` FROM event_participations WHERE id = ?`
	return scanParticipation(r.db.QueryRow(query, id))
}

// GetActiveByEventAndUser retrieves the live participation of a user in
// an event, if any
func (r *EventParticipationRepository) GetActiveByEventAndUser(eventID, userID string) (*models.EventParticipation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM event_participations
		WHERE event_id = ? AND user_id = ? AND is_active = 1
	`
	return scanParticipation(r.db.QueryRow(query, eventID, userID))
}

// GetByUser retrieves all participations of a user, newest first
func (r *EventParticipationRepository) GetByUser(userID string) ([]*models.EventParticipation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM event_participations
		WHERE user_id = ?
		ORDER BY participation_date DESC
	`
	return r.queryParticipations(query, userID)
}

// GetByEvent retrieves all active participations of an event
func (r *EventParticipationRepository) GetByEvent(eventID string) ([]*models.EventParticipation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM event_participations
		WHERE event_id = ? AND is_active = 1
		ORDER BY participation_date ASC
	`
	return r.queryParticipations(query, eventID)
}

func (r *EventParticipationRepository) queryParticipations(query string, args ...any) ([]*models.EventParticipation, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participations []*models.EventParticipation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		participations = append(participations, p)
	}

	return participations, rows.Err()
}

// GetEventLeaderboard retrieves the ranked standings of an event.
// Ordering is score, then commit count, then earliest join.
func (r *EventParticipationRepository) GetEventLeaderboard(eventID string) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT p.user_id, u.username, u.rank, p.score, p.total_commits, p.total_prs,
			   p.lines_added, p.lines_deleted, p.participation_date, p.last_activity_date
		FROM event_participations p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = ? AND p.is_active = 1
		ORDER BY p.score DESC, p.total_commits DESC, p.participation_date ASC
	`

	rows, err := r.db.Query(query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		entry := &models.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID, &entry.Username, &entry.UserRank, &entry.Score,
			&entry.TotalCommits, &entry.TotalPRs, &entry.LinesAdded,
			&entry.LinesDeleted, &entry.JoinedAt, &entry.LastActivity,
		)
		if err != nil {
			return nil, err
		}
		entry.Position = len(entries) + 1
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// GetActiveForSync retrieves every participation eligible for activity
// syncing: active participation, open unexpired event, user with a
// stored access token.
func (r *EventParticipationRepository) GetActiveForSync() ([]*models.SyncParticipation, error) {
	query := `
		SELECT p.id, p.event_id, p.user_id, p.github_fork_url, p.branch_name,
			   p.participation_date, p.is_active, p.total_commits, p.total_prs,
			   p.lines_added, p.lines_deleted, p.score, p.last_activity_date,
			   p.created_at, p.updated_at,
			   u.username, u.access_token, e.github_repo
		FROM event_participations p
		JOIN users u ON u.id = p.user_id
		JOIN events e ON e.id = p.event_id
		WHERE p.is_active = 1
		  AND e.active = 1
		  AND e.end_date > CURRENT_TIMESTAMP
		  AND u.access_token != ''
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.SyncParticipation
	for rows.Next() {
		sp := &models.SyncParticipation{}
		p := &sp.Participation
		err := rows.Scan(
			&p.ID, &p.EventID, &p.UserID, &p.GithubForkURL, &p.BranchName,
			&p.ParticipationDate, &p.IsActive, &p.TotalCommits, &p.TotalPRs,
			&p.LinesAdded, &p.LinesDeleted, &p.Score, &p.LastActivityDate,
			&p.CreatedAt, &p.UpdatedAt,
			&sp.Username, &sp.AccessToken, &sp.GithubRepo,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, sp)
	}

	return result, rows.Err()
}

// UpdateStats writes the recomputed aggregates of a participation
func (r *EventParticipationRepository) UpdateStats(id string, stats *models.ParticipationStats) error {
	query := `
		UPDATE event_participations SET
			total_commits = ?, total_prs = ?, lines_added = ?, lines_deleted = ?,
			score = ?, last_activity_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		stats.TotalCommits, stats.TotalPRs, stats.LinesAdded, stats.LinesDeleted,
		stats.Score, stats.LastActivityDate, id,
	)

	return err
}

// Deactivate marks a participation as withdrawn
func (r *EventParticipationRepository) Deactivate(id string) error {
	query := `UPDATE event_participations SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, id)
	return err
}

// CountActiveByUser returns the number of live participations of a user
func (r *EventParticipationRepository) CountActiveByUser(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM event_participations WHERE user_id = ? AND is_active = 1`,
		userID,
	).Scan(&count)
	return count, err
}

// SumScoreByUser returns the total event score of a user across live
// participations
func (r *EventParticipationRepository) SumScoreByUser(userID string) (int, error) {
	var total int
	err := r.db.QueryRow(
		`SELECT COALESCE(SUM(score), 0) FROM event_participations WHERE user_id = ? AND is_active = 1`,
		userID,
	).Scan(&total)
	return total, err
}
