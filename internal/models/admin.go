package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin statuses. Full admins manage other admins; product admins are
// limited to content operations.
const (
	AdminStatusAdmin   = "admin"
	AdminStatusProduct = "product"
)

// Admin represents a platform administrator with password credentials.
type Admin struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAdmin creates a new Admin with a generated UUID. The password must
// already be hashed.
func NewAdmin(name, email, hashedPassword, status string) *Admin {
	if status == "" {
		status = AdminStatusProduct
	}
	return &Admin{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Status:   status,
	}
}

// IsSuperAdmin reports whether this admin can manage other admins.
func (a *Admin) IsSuperAdmin() bool {
	return a.Status == AdminStatusAdmin
}
