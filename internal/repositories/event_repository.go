package repositories

import (
	"database/sql"

	"github.com/forgedao/forgeboard/internal/models"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, github_repo, visible_ranks, end_date,
	   created_by, active, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	event := &models.Event{}
	var visibleRanks string
	err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.GithubRepo, &visibleRanks,
		&event.EndDate, &event.CreatedBy, &event.Active, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := event.UnmarshalVisibleRanks(visibleRanks); err != nil {
		return nil, err
	}
	return event, nil
}

// Create creates a new event
func (r *EventRepository) Create(event *models.Event) error {
	visibleRanks, err := event.MarshalVisibleRanks()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (id, title, description, github_repo, visible_ranks, end_date, created_by, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		event.ID, event.Title, event.Description, event.GithubRepo,
		visibleRanks, event.EndDate, event.CreatedBy, event.Active,
	)

	return err
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(r.db.QueryRow(query, id))
}

// GetAll retrieves all events, newest first
func (r *EventRepository) GetAll() ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC`
	return r.queryEvents(query)
}

// GetActive retrieves active events that have not yet ended
func (r *EventRepository) GetActive() ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE active = 1 AND end_date > CURRENT_TIMESTAMP
		ORDER BY end_date ASC
	`
	return r.queryEvents(query)
}

func (r *EventRepository) queryEvents(query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// Update updates an existing event
func (r *EventRepository) Update(event *models.Event) error {
	visibleRanks, err := event.MarshalVisibleRanks()
	if err != nil {
		return err
	}

	query := `
		UPDATE events SET
			title = ?, description = ?, github_repo = ?, visible_ranks = ?,
			end_date = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err = r.db.Exec(query,
		event.Title, event.Description, event.GithubRepo, visibleRanks,
		event.EndDate, event.Active, event.ID,
	)

	return err
}

// Delete removes an event and, through cascades, its participations and
// activities
func (r *EventRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	return err
}

// Count returns the total number of events
func (r *EventRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count)
	return count, err
}

// CountActive returns the number of open events
func (r *EventRepository) CountActive() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events WHERE active = 1 AND end_date > CURRENT_TIMESTAMP`).Scan(&count)
	return count, err
}
