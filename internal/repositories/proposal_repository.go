package repositories

import (
	"database/sql"

	"github.com/forgedao/forgeboard/internal/models"
)

type ProposalRepository struct {
	db *sql.DB
}

func NewProposalRepository(db *sql.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalColumns = `id, title, description, repository_link, github_issue_link,
	   branch_name, created_by, created_at, updated_at`

func scanProposal(row interface{ Scan(...any) error }) (*models.Proposal, error) {
	p := &models.Proposal{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.RepositoryLink, &p.GithubIssueLink,
		&p.BranchName, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create creates a new proposal
func (r *ProposalRepository) Create(p *models.Proposal) error {
	query := `
		INSERT INTO proposals (id, title, description, repository_link, github_issue_link, branch_name, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		p.ID, p.Title, p.Description, p.RepositoryLink, p.GithubIssueLink,
		p.BranchName, p.CreatedBy,
	)

	return err
}

// GetByID retrieves a proposal by ID
func (r *ProposalRepository) GetByID(id string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = ?`
	return scanProposal(r.db.QueryRow(query, id))
}

// GetAll retrieves all proposals, newest first
func (r *ProposalRepository) GetAll() ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals ORDER BY created_at DESC`
	return r.queryProposals(query)
}

// GetByUser retrieves proposals created by a user, newest first
func (r *ProposalRepository) GetByUser(userID string) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE created_by = ? ORDER BY created_at DESC`
	return r.queryProposals(query, userID)
}

func (r *ProposalRepository) queryProposals(query string, args ...any) ([]*models.Proposal, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

// Update updates an existing proposal
func (r *ProposalRepository) Update(p *models.Proposal) error {
	query := `
		UPDATE proposals SET
			title = ?, description = ?, repository_link = ?, github_issue_link = ?,
			branch_name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		p.Title, p.Description, p.RepositoryLink, p.GithubIssueLink,
		p.BranchName, p.ID,
	)

	return err
}

// Delete removes a proposal and its contributions
func (r *ProposalRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM proposals WHERE id = ?`, id)
	return err
}

// CountByUser returns the number of proposals created by a user
func (r *ProposalRepository) CountByUser(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM proposals WHERE created_by = ?`, userID).Scan(&count)
	return count, err
}

// Count returns the total number of proposals
func (r *ProposalRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM proposals`).Scan(&count)
	return count, err
}
