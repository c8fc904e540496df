package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/forgedao/forgeboard/internal/models"
)

// Admin flow errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrEmailTaken         = errors.New("an admin with this email already exists")
	ErrNotSuperAdmin      = errors.New("full admin access required")
)

const bcryptCost = 12

// AdminStore is the persistence surface for admins.
type AdminStore interface {
	Create(admin *models.Admin) error
	GetByID(id string) (*models.Admin, error)
	GetByEmail(email string) (*models.Admin, error)
	GetAll() ([]*models.Admin, error)
	Delete(id string) error
}

// DashboardCounters provides the aggregate counts of the admin dashboard.
type DashboardCounters interface {
	Count() (int, error)
	CountByRank() (map[string]int, error)
}

// EventCounters counts events for the dashboard.
type EventCounters interface {
	Count() (int, error)
	CountActive() (int, error)
}

// ProposalCounters counts proposals for the dashboard.
type ProposalCounters interface {
	Count() (int, error)
}

// AdminService handles admin credentials, JWT issuance, and the
// dashboard overview.
type AdminService struct {
	admins    AdminStore
	users     DashboardCounters
	events    EventCounters
	proposals ProposalCounters
	jwtSecret []byte
}

func NewAdminService(admins AdminStore, users DashboardCounters, events EventCounters, proposals ProposalCounters, jwtSecret string) *AdminService {
	return &AdminService{
		admins:    admins,
		users:     users,
		events:    events,
		proposals: proposals,
		jwtSecret: []byte(jwtSecret),
	}
}

// AdminClaims are the JWT claims of an admin session token.
type AdminClaims struct {
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	Type    string `json:"type"`
	jwt.RegisteredClaims
}

// Login verifies credentials and returns a signed 24-hour JWT.
func (s *AdminService) Login(email, password string) (string, *models.Admin, error) {
	admin, err := s.admins.GetByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	claims := AdminClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Status:  admin.Status,
		Type:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return token, admin, nil
}

// VerifyToken parses and validates an admin JWT.
func (s *AdminService) VerifyToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Type != "admin" {
		return nil, errors.New("invalid admin token")
	}

	return claims, nil
}

// CreateAdmin registers a new admin. Super admin only.
func (s *AdminService) CreateAdmin(creatorID, name, email, password, status string) (*models.Admin, error) {
	creator, err := s.admins.GetByID(creatorID)
	if err != nil {
		return nil, ErrAdminNotFound
	}
	if !creator.IsSuperAdmin() {
		return nil, ErrNotSuperAdmin
	}

	if name == "" || email == "" {
		return nil, errors.New("name and email are required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	if _, err := s.admins.GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	admin := models.NewAdmin(name, email, string(hashed), status)
	if err := s.admins.Create(admin); err != nil {
		return nil, err
	}

	return admin, nil
}

// ListAdmins returns all admins. Super admin only.
func (s *AdminService) ListAdmins(requesterID string) ([]*models.Admin, error) {
	requester, err := s.admins.GetByID(requesterID)
	if err != nil {
		return nil, ErrAdminNotFound
	}
	if !requester.IsSuperAdmin() {
		return nil, ErrNotSuperAdmin
	}
	return s.admins.GetAll()
}

// DashboardStats is the admin dashboard overview.
type DashboardStats struct {
	TotalUsers     int            `json:"total_users"`
	TotalEvents    int            `json:"total_events"`
	ActiveEvents   int            `json:"active_events"`
	TotalProposals int            `json:"total_proposals"`
	UsersByRank    map[string]int `json:"users_by_rank"`
}

// GetDashboardStats aggregates the platform counters.
func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	totalUsers, err := s.users.Count()
	if err != nil {
		return nil, err
	}
	usersByRank, err := s.users.CountByRank()
	if err != nil {
		return nil, err
	}
	totalEvents, err := s.events.Count()
	if err != nil {
		return nil, err
	}
	activeEvents, err := s.events.CountActive()
	if err != nil {
		return nil, err
	}
	totalProposals, err := s.proposals.Count()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalUsers:     totalUsers,
		TotalEvents:    totalEvents,
		ActiveEvents:   activeEvents,
		TotalProposals: totalProposals,
		UsersByRank:    usersByRank,
	}, nil
}
