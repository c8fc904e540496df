package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forgedao/forgeboard/internal/models"
)

type fakeEventStore struct {
	events map[string]*models.Event
}

func newFakeEventStore(events ...*models.Event) *fakeEventStore {
	s := &fakeEventStore{events: make(map[string]*models.Event)}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *fakeEventStore) Create(event *models.Event) error {
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) GetByID(id string) (*models.Event, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return event, nil
}

func (s *fakeEventStore) GetAll() ([]*models.Event, error) {
	var all []*models.Event
	for _, e := range s.events {
		all = append(all, e)
	}
	return all, nil
}

func (s *fakeEventStore) GetActive() ([]*models.Event, error) {
	var active []*models.Event
	for _, e := range s.events {
		if e.IsOpen() {
			active = append(active, e)
		}
	}
	return active, nil
}

func (s *fakeEventStore) Update(event *models.Event) error {
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) Delete(id string) error {
	delete(s.events, id)
	return nil
}

type fakeJoinStore struct {
	participations map[string]*models.EventParticipation
	deactivated    []string
}

func newFakeJoinStore() *fakeJoinStore {
	return &fakeJoinStore{participations: make(map[string]*models.EventParticipation)}
}

func (s *fakeJoinStore) Create(p *models.EventParticipation) error {
	s.participations[p.ID] = p
	return nil
}

func (s *fakeJoinStore) GetActiveByEventAndUser(eventID, userID string) (*models.EventParticipation, error) {
	for _, p := range s.participations {
		if p.EventID == eventID && p.UserID == userID && p.IsActive {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeJoinStore) GetByUser(userID string) ([]*models.EventParticipation, error) {
	var result []*models.EventParticipation
	for _, p := range s.participations {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *fakeJoinStore) Deactivate(id string) error {
	if p, ok := s.participations[id]; ok {
		p.IsActive = false
	}
	s.deactivated = append(s.deactivated, id)
	return nil
}

type fakeForkBrancher struct {
	forkURL  string
	branches []string
}

func (f *fakeForkBrancher) ExtractRepoInfo(repoURL string) (string, string, error) {
	return NewGithubRepoService().ExtractRepoInfo(repoURL)
}

func (f *fakeForkBrancher) CreateBranchInFork(ctx context.Context, token, owner, repo, branchName string) (string, error) {
	f.branches = append(f.branches, branchName)
	return f.forkURL, nil
}

func newTestEventService(event *models.Event, user *models.User) (*EventService, *fakeJoinStore, *fakeForkBrancher) {
	events := newFakeEventStore(event)
	joins := newFakeJoinStore()
	users := newFakeUserStore(user)
	brancher := &fakeForkBrancher{forkURL: "https://github.com/" + user.Username + "/platform"}

	activityStore := &fakeActivityStore{}
	activityService := NewActivityService(activityStore, models.DefaultActivityPoints())
	participationStore := newFakeParticipationStore()
	participationService := NewParticipationService(participationStore, &statsFromStore{store: activityStore})

	service := NewEventService(events, joins, users, activityService, participationService, brancher)
	return service, joins, brancher
}

func openEvent(ranks ...string) *models.Event {
	if len(ranks) == 0 {
		ranks = []string{models.RankCodeNovice}
	}
	return models.NewEvent(
		"Spring Sprint",
		"Build things",
		"https://github.com/forgedao/platform",
		ranks,
		time.Now().Add(7*24*time.Hour),
		"admin-1",
	)
}

func eligibleUser() *models.User {
	user := models.NewUser(10, "alice")
	user.AccessToken = "token"
	return user
}

func TestParticipate(t *testing.T) {
	event := openEvent()
	user := eligibleUser()
	service, joins, brancher := newTestEventService(event, user)

	participation, err := service.Participate(context.Background(), event.ID, user.ID)
	assert.NoError(t, err)
	assert.NotNil(t, participation)
	assert.True(t, participation.IsActive)
	assert.Equal(t, brancher.forkURL, participation.GithubForkURL)
	assert.Contains(t, participation.BranchName, "event-"+event.ID+"-alice-")
	assert.Len(t, brancher.branches, 1)
	assert.Len(t, joins.participations, 1)
}

func TestParticipateTwiceFails(t *testing.T) {
	event := openEvent()
	user := eligibleUser()
	service, _, _ := newTestEventService(event, user)

	_, err := service.Participate(context.Background(), event.ID, user.ID)
	assert.NoError(t, err)

	_, err = service.Participate(context.Background(), event.ID, user.ID)
	assert.ErrorIs(t, err, ErrAlreadyParticipating)
}

func TestParticipateEligibility(t *testing.T) {
	t.Run("Unknown event", func(t *testing.T) {
		service, _, _ := newTestEventService(openEvent(), eligibleUser())
		_, err := service.Participate(context.Background(), "missing", "user")
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("Closed event", func(t *testing.T) {
		event := openEvent()
		event.Active = false
		user := eligibleUser()
		service, _, _ := newTestEventService(event, user)

		_, err := service.Participate(context.Background(), event.ID, user.ID)
		assert.ErrorIs(t, err, ErrEventClosed)
	})

	t.Run("Expired event", func(t *testing.T) {
		event := openEvent()
		event.EndDate = time.Now().Add(-time.Hour)
		user := eligibleUser()
		service, _, _ := newTestEventService(event, user)

		_, err := service.Participate(context.Background(), event.ID, user.ID)
		assert.ErrorIs(t, err, ErrEventClosed)
	})

	t.Run("Rank not eligible", func(t *testing.T) {
		event := openEvent(models.RankForgeMaster)
		user := eligibleUser()
		service, _, _ := newTestEventService(event, user)

		_, err := service.Participate(context.Background(), event.ID, user.ID)
		assert.ErrorIs(t, err, ErrRankNotEligible)
	})

	t.Run("Missing GitHub token", func(t *testing.T) {
		event := openEvent()
		user := models.NewUser(11, "tokenless")
		service, _, _ := newTestEventService(event, user)

		_, err := service.Participate(context.Background(), event.ID, user.ID)
		assert.ErrorIs(t, err, ErrNoGithubToken)
	})
}

func TestWithdraw(t *testing.T) {
	event := openEvent()
	user := eligibleUser()
	service, joins, _ := newTestEventService(event, user)

	_, err := service.Participate(context.Background(), event.ID, user.ID)
	assert.NoError(t, err)

	assert.NoError(t, service.Withdraw(event.ID, user.ID))
	assert.Len(t, joins.deactivated, 1)

	// A second withdraw finds no live participation.
	assert.ErrorIs(t, service.Withdraw(event.ID, user.ID), ErrNotParticipating)
}

func TestListVisibleEvents(t *testing.T) {
	noviceEvent := openEvent(models.RankCodeNovice)
	masterEvent := openEvent(models.RankForgeMaster)
	closedEvent := openEvent(models.RankCodeNovice)
	closedEvent.Active = false

	events := newFakeEventStore(noviceEvent, masterEvent, closedEvent)
	service := NewEventService(events, newFakeJoinStore(), newFakeUserStore(), nil, nil, nil)

	visible, err := service.ListVisibleEvents(models.RankCodeNovice)
	assert.NoError(t, err)
	assert.Len(t, visible, 1)
	assert.Equal(t, noviceEvent.ID, visible[0].ID)
}

func TestGetParticipationStatus(t *testing.T) {
	event := openEvent()
	user := eligibleUser()
	service, _, _ := newTestEventService(event, user)

	status, err := service.GetParticipationStatus(event.ID, user.ID)
	assert.NoError(t, err)
	assert.Nil(t, status, "not participating yet")

	participation, err := service.Participate(context.Background(), event.ID, user.ID)
	assert.NoError(t, err)

	status, err = service.GetParticipationStatus(event.ID, user.ID)
	assert.NoError(t, err)
	assert.NotNil(t, status)
	assert.Equal(t, participation.ID, status.ID)

	_, err = service.GetParticipationStatus("missing", user.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
