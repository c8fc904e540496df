package repositories

import (
	"database/sql"

	"github.com/forgedao/forgeboard/internal/models"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `id, name, email, password, status, created_at, updated_at`

func scanAdmin(row interface{ Scan(...any) error }) (*models.Admin, error) {
	admin := &models.Admin{}
	err := row.Scan(
		&admin.ID, &admin.Name, &admin.Email, &admin.Password, &admin.Status,
		&admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// Create creates a new admin
func (r *AdminRepository) Create(admin *models.Admin) error {
	query := `
		INSERT INTO admins (id, name, email, password, status)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, admin.ID, admin.Name, admin.Email, admin.Password, admin.Status)
	return err
}

// GetByID retrieves an admin by ID
func (r *AdminRepository) GetByID(id string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = ?`
	return scanAdmin(r.db.QueryRow(query, id))
}

// GetByEmail retrieves an admin by email
func (r *AdminRepository) GetByEmail(email string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = ?`
	return scanAdmin(r.db.QueryRow(query, email))
}

// GetAll retrieves all admins
func (r *AdminRepository) GetAll() ([]*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*models.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}

	return admins, rows.Err()
}

// Delete removes an admin
func (r *AdminRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM admins WHERE id = ?`, id)
	return err
}
