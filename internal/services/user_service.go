package services

import (
	"database/sql"
	"errors"

	"github.com/forgedao/forgeboard/internal/models"
)

// UserStore is the persistence surface for users.
type UserStore interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByGithubID(githubID int64) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetAll() ([]*models.User, error)
	Patch(id string, patch *models.UserPatch) error
}

// UserActivityStore reads a user's recorded event activities.
type UserActivityStore interface {
	GetByUser(userID string, limit int) ([]*models.EventActivity, error)
}

// UserService manages user profiles.
type UserService struct {
	users      UserStore
	activities UserActivityStore
}

func NewUserService(users UserStore, activities UserActivityStore) *UserService {
	return &UserService{users: users, activities: activities}
}

// UpsertFromGithub creates or refreshes a user from their GitHub
// profile after OAuth login.
func (s *UserService) UpsertFromGithub(ghUser *GitHubUser, accessToken string) (*models.User, error) {
	existing, err := s.users.GetByGithubID(ghUser.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		user := models.NewUser(ghUser.ID, ghUser.Login)
		user.Bio = ghUser.Bio
		user.AccessToken = accessToken
		if err := s.users.Create(user); err != nil {
			return nil, err
		}
		return user, nil
	}

	patch := &models.UserPatch{
		Username:    &ghUser.Login,
		AccessToken: &accessToken,
	}
	if err := s.users.Patch(existing.ID, patch); err != nil {
		return nil, err
	}
	existing.Username = ghUser.Login
	existing.AccessToken = accessToken

	return existing, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(id string) (*models.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *UserService) GetUserByUsername(username string) (*models.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies profile changes to a user.
func (s *UserService) UpdateProfile(userID string, bio, walletAddress *string) (*models.User, error) {
	if _, err := s.GetUser(userID); err != nil {
		return nil, err
	}

	patch := &models.UserPatch{
		Bio:           bio,
		WalletAddress: walletAddress,
	}
	if err := s.users.Patch(userID, patch); err != nil {
		return nil, err
	}

	return s.GetUser(userID)
}

// ListUsers returns every registered user.
func (s *UserService) ListUsers() ([]*models.User, error) {
	return s.users.GetAll()
}

// GetRecentActivities returns a user's latest event activities.
func (s *UserService) GetRecentActivities(userID string, limit int) ([]*models.EventActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.activities.GetByUser(userID, limit)
}
