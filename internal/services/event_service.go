package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/pkg/logger"
)

// Event flow errors mapped to HTTP statuses by handlers.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventClosed          = errors.New("event is closed")
	ErrRankNotEligible      = errors.New("your rank cannot join this event")
	ErrAlreadyParticipating = errors.New("already participating in this event")
	ErrNoGithubToken        = errors.New("no GitHub access token on file")
	ErrNotParticipating     = errors.New("not participating in this event")
)

// EventStore is the persistence surface for events.
type EventStore interface {
	Create(event *models.Event) error
	GetByID(id string) (*models.Event, error)
	GetAll() ([]*models.Event, error)
	GetActive() ([]*models.Event, error)
	Update(event *models.Event) error
	Delete(id string) error
}

// EventParticipationStore is the persistence surface the join flow needs.
type EventParticipationStore interface {
	Create(p *models.EventParticipation) error
	GetActiveByEventAndUser(eventID, userID string) (*models.EventParticipation, error)
	GetByUser(userID string) ([]*models.EventParticipation, error)
	Deactivate(id string) error
}

// EventUserStore looks up users for eligibility checks.
type EventUserStore interface {
	GetByID(id string) (*models.User, error)
}

// ForkBrancher prepares a user's fork and working branch on GitHub.
type ForkBrancher interface {
	ExtractRepoInfo(repoURL string) (owner, repo string, err error)
	CreateBranchInFork(ctx context.Context, token, owner, repo, branchName string) (forkURL string, err error)
}

// EventService manages events and the participation join flow: fork the
// event repository, create a working branch, and record the opening
// activities.
type EventService struct {
	events         EventStore
	participations EventParticipationStore
	users          EventUserStore
	activities     *ActivityService
	stats          *ParticipationService
	repos          ForkBrancher
}

func NewEventService(
	events EventStore,
	participations EventParticipationStore,
	users EventUserStore,
	activities *ActivityService,
	stats *ParticipationService,
	repos ForkBrancher,
) *EventService {
	return &EventService{
		events:         events,
		participations: participations,
		users:          users,
		activities:     activities,
		stats:          stats,
		repos:          repos,
	}
}

// CreateEvent validates and stores a new event.
func (s *EventService) CreateEvent(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return s.events.Create(event)
}

// GetEvent retrieves a single event.
func (s *EventService) GetEvent(id string) (*models.Event, error) {
	event, err := s.events.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// ListEvents returns all events for administration.
func (s *EventService) ListEvents() ([]*models.Event, error) {
	return s.events.GetAll()
}

// ListVisibleEvents returns open events visible to a user's rank.
func (s *EventService) ListVisibleEvents(userRank string) ([]*models.Event, error) {
	active, err := s.events.GetActive()
	if err != nil {
		return nil, err
	}

	visible := make([]*models.Event, 0, len(active))
	for _, event := range active {
		if event.IsVisibleToRank(userRank) {
			visible = append(visible, event)
		}
	}

	return visible, nil
}

// UpdateEvent validates and stores changes to an event.
func (s *EventService) UpdateEvent(event *models.Event) error {
	if _, err := s.GetEvent(event.ID); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return s.events.Update(event)
}

// DeleteEvent removes an event and its participation records.
func (s *EventService) DeleteEvent(id string) error {
	if _, err := s.GetEvent(id); err != nil {
		return err
	}
	return s.events.Delete(id)
}

// Participate joins a user into an event: checks eligibility, forks the
// event repository, creates the working branch, and records the opening
// fork and branch activities.
func (s *EventService) Participate(ctx context.Context, eventID, userID string) (*models.EventParticipation, error) {
	event, err := s.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOpen() {
		return nil, ErrEventClosed
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !event.IsVisibleToRank(user.Rank) {
		return nil, ErrRankNotEligible
	}
	if !user.HasGithubToken() {
		return nil, ErrNoGithubToken
	}

	existing, err := s.participations.GetActiveByEventAndUser(eventID, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyParticipating
	}

	owner, repo, err := s.repos.ExtractRepoInfo(event.GithubRepo)
	if err != nil {
		return nil, err
	}

	branchName := fmt.Sprintf("event-%s-%s-%d", eventID, user.Username, time.Now().UnixMilli())
	forkURL, err := s.repos.CreateBranchInFork(ctx, user.AccessToken, owner, repo, branchName)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare fork and branch: %w", err)
	}

	participation := models.NewEventParticipation(eventID, userID, forkURL, branchName)
	if err := s.participations.Create(participation); err != nil {
		return nil, err
	}

	s.recordJoinActivity(participation, models.ActivityForkCreated, forkURL)
	s.recordJoinActivity(participation, models.ActivityBranchCreated, branchName)

	if _, err := s.stats.RefreshStats(participation.ID); err != nil {
		logger.WithError(err).WithField("participation_id", participation.ID).Warn("Failed to refresh stats after join")
	}

	return participation, nil
}

func (s *EventService) recordJoinActivity(p *models.EventParticipation, activityType, ref string) {
	_, _, err := s.activities.Record(ActivityInput{
		ParticipationID: p.ID,
		EventID:         p.EventID,
		UserID:          p.UserID,
		ActivityType:    activityType,
		GithubSHA:       ref,
		ActivityDate:    p.ParticipationDate,
	})
	if err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"participation_id": p.ID,
			"activity_type":    activityType,
		}).Error("Failed to record join activity")
	}
}

// Withdraw deactivates a user's participation in an event.
func (s *EventService) Withdraw(eventID, userID string) error {
	participation, err := s.participations.GetActiveByEventAndUser(eventID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotParticipating
		}
		return err
	}
	return s.participations.Deactivate(participation.ID)
}

// GetParticipationStatus returns a user's active participation in an
// event, or nil when they are not participating.
func (s *EventService) GetParticipationStatus(eventID, userID string) (*models.EventParticipation, error) {
	if _, err := s.GetEvent(eventID); err != nil {
		return nil, err
	}

	participation, err := s.participations.GetActiveByEventAndUser(eventID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return participation, nil
}

// GetUserParticipations returns a user's participation history.
func (s *EventService) GetUserParticipations(userID string) ([]*models.EventParticipation, error) {
	return s.participations.GetByUser(userID)
}
