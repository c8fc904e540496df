package repositories

import (
	"database/sql"
	"strings"

	"github.com/forgedao/forgeboard/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, github_id, username, bio, wallet_address, access_token,
	   rank, total_score, last_rank_update, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.GithubID, &user.Username, &user.Bio, &user.WalletAddress,
		&user.AccessToken, &user.Rank, &user.TotalScore, &user.LastRankUpdate,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, github_id, username, bio, wallet_address, access_token, rank, total_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		user.ID, user.GithubID, user.Username, user.Bio, user.WalletAddress,
		user.AccessToken, user.Rank, user.TotalScore,
	)

	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRow(query, id))
}

// GetByGithubID retrieves a user by their GitHub account ID
func (r *UserRepository) GetByGithubID(githubID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE github_id = ?`
	return scanUser(r.db.QueryRow(query, githubID))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(r.db.QueryRow(query, username))
}

// GetAll retrieves all users
func (r *UserRepository) GetAll() ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// GetLeaderboard retrieves users ordered by total score descending
func (r *UserRepository) GetLeaderboard(limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY total_score DESC, username ASC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Count returns the total number of users
func (r *UserRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CountByRank returns the number of users per rank tier
func (r *UserRepository) CountByRank() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT rank, COUNT(*) FROM users GROUP BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var rank string
		var count int
		if err := rows.Scan(&rank, &count); err != nil {
			return nil, err
		}
		counts[rank] = count
	}

	return counts, rows.Err()
}

// Patch applies a sparse update to a user. Only non-nil fields change.
func (r *UserRepository) Patch(id string, patch *models.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any

	if patch.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *patch.Username)
	}
	if patch.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *patch.Bio)
	}
	if patch.WalletAddress != nil {
		sets = append(sets, "wallet_address = ?")
		args = append(args, *patch.WalletAddress)
	}
	if patch.AccessToken != nil {
		sets = append(sets, "access_token = ?")
		args = append(args, *patch.AccessToken)
	}
	if patch.Rank != nil {
		sets = append(sets, "rank = ?")
		args = append(args, *patch.Rank)
	}
	if patch.TotalScore != nil {
		sets = append(sets, "total_score = ?")
		args = append(args, *patch.TotalScore)
	}
	if patch.LastRankUpdate != nil {
		sets = append(sets, "last_rank_update = ?")
		args = append(args, *patch.LastRankUpdate)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	_, err := r.db.Exec(query, args...)
	return err
}
