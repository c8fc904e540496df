package repositories

import (
	"database/sql"

	"github.com/forgedao/forgeboard/internal/models"
)

type ContributionRepository struct {
	db *sql.DB
}

func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

const contributionColumns = `id, proposal_id, user_id, type, branch_name, pr_number, action, created_at`

func scanContribution(row interface{ Scan(...any) error }) (*models.Contribution, error) {
	c := &models.Contribution{}
	err := row.Scan(
		&c.ID, &c.ProposalID, &c.UserID, &c.Type, &c.BranchName,
		&c.PRNumber, &c.Action, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create creates a new contribution record
func (r *ContributionRepository) Create(c *models.Contribution) error {
	query := `
		INSERT INTO contributions (id, proposal_id, user_id, type, branch_name, pr_number, action)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		c.ID, c.ProposalID, c.UserID, c.Type, c.BranchName, c.PRNumber, c.Action,
	)

	return err
}

// GetByProposal retrieves all contributions on a proposal, newest first
func (r *ContributionRepository) GetByProposal(proposalID string) ([]*models.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions WHERE proposal_id = ? ORDER BY created_at DESC`
	return r.queryContributions(query, proposalID)
}

// GetByUser retrieves all contributions of a user, newest first
func (r *ContributionRepository) GetByUser(userID string) ([]*models.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions WHERE user_id = ? ORDER BY created_at DESC`
	return r.queryContributions(query, userID)
}

func (r *ContributionRepository) queryContributions(query string, args ...any) ([]*models.Contribution, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}

	return contributions, rows.Err()
}

// CountByUser returns the number of contributions of a user
func (r *ContributionRepository) CountByUser(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM contributions WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}
