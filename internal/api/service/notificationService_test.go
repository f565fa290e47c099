package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"upkeep/internal/api/models"
	"upkeep/internal/api/service"
	"upkeep/internal/feed"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotificationRepo) RecentByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	rows, _ := args.Get(0).([]models.Notification)
	return rows, args.Error(1)
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) DeleteByEndpoint(ctx context.Context, userID, endpoint string) error {
	args := m.Called(ctx, userID, endpoint)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishNotification(ctx context.Context, n feed.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

const serviceUser = "0b1c2d3e-aaaa-bbbb-cccc-ddddeeee0001"

func newService(repo *mockNotificationRepo, subs *mockSubscriptionRepo, pub *mockPublisher) service.NotificationService {
	return service.NewNotificationService(repo, subs, pub, nil)
}

func TestCreatePersistsAndPublishes(t *testing.T) {
	repo := new(mockNotificationRepo)
	pub := new(mockPublisher)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return uuid.Validate(n.ID) == nil &&
			n.UserID == serviceUser &&
			n.Title == "Lease renewal due" &&
			n.Priority == "high"
	})).Return(nil)
	pub.On("PublishNotification", mock.Anything, mock.MatchedBy(func(n feed.Notification) bool {
		return n.UserID == serviceUser && n.Title == "Lease renewal due" && n.Priority == feed.PriorityHigh
	})).Return(nil)

	svc := newService(repo, new(mockSubscriptionRepo), pub)
	n, err := svc.Create(context.Background(), service.CreateInput{
		UserID:   serviceUser,
		Title:    "Lease renewal due",
		Priority: feed.PriorityHigh,
		Payload:  map[string]any{"lease_id": "L-99"},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lease_id": "L-99"}, n.Payload)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateDefaultsPriority(t *testing.T) {
	repo := new(mockNotificationRepo)
	pub := new(mockPublisher)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Priority == "normal"
	})).Return(nil)
	pub.On("PublishNotification", mock.Anything, mock.Anything).Return(nil)

	svc := newService(repo, new(mockSubscriptionRepo), pub)
	_, err := svc.Create(context.Background(), service.CreateInput{UserID: serviceUser, Title: "hi"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateRejectsUnknownPriority(t *testing.T) {
	repo := new(mockNotificationRepo)

	svc := newService(repo, new(mockSubscriptionRepo), new(mockPublisher))
	_, err := svc.Create(context.Background(), service.CreateInput{
		UserID:   serviceUser,
		Title:    "hi",
		Priority: feed.Priority("shouty"),
	})

	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePublishFailureIsNotFatal(t *testing.T) {
	repo := new(mockNotificationRepo)
	pub := new(mockPublisher)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishNotification", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := newService(repo, new(mockSubscriptionRepo), pub)
	_, err := svc.Create(context.Background(), service.CreateInput{UserID: serviceUser, Title: "hi"})

	// the row is durable; realtime delivery is best effort
	assert.NoError(t, err)
}

func TestCreateRepoFailure(t *testing.T) {
	repo := new(mockNotificationRepo)
	pub := new(mockPublisher)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := newService(repo, new(mockSubscriptionRepo), pub)
	_, err := svc.Create(context.Background(), service.CreateInput{UserID: serviceUser, Title: "hi"})

	require.Error(t, err)
	pub.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
}

func TestRecentConvertsRows(t *testing.T) {
	repo := new(mockNotificationRepo)
	repo.On("RecentByUser", mock.Anything, serviceUser, 20).Return([]models.Notification{
		{ID: "n1", UserID: serviceUser, Title: "a", Priority: "urgent", Payload: []byte(`{"unit":"4B"}`)},
		{ID: "n2", UserID: serviceUser, Title: "b", Priority: "normal", Read: true},
	}, nil)

	svc := newService(repo, new(mockSubscriptionRepo), new(mockPublisher))
	out, err := svc.Recent(context.Background(), serviceUser, 20)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, feed.PriorityUrgent, out[0].Priority)
	assert.Equal(t, map[string]any{"unit": "4B"}, out[0].Payload)
	assert.True(t, out[1].Read)
}

func TestMarkReadMapsMissingRow(t *testing.T) {
	repo := new(mockNotificationRepo)
	repo.On("MarkAsRead", mock.Anything, serviceUser, "gone").Return(gorm.ErrRecordNotFound)

	svc := newService(repo, new(mockSubscriptionRepo), new(mockPublisher))
	err := svc.MarkRead(context.Background(), serviceUser, "gone")

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteMapsMissingRow(t *testing.T) {
	repo := new(mockNotificationRepo)
	repo.On("Delete", mock.Anything, serviceUser, "gone").Return(gorm.ErrRecordNotFound)

	svc := newService(repo, new(mockSubscriptionRepo), new(mockPublisher))
	err := svc.Delete(context.Background(), serviceUser, "gone")

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRegisterSubscription(t *testing.T) {
	subs := new(mockSubscriptionRepo)
	subs.On("Upsert", mock.Anything, mock.MatchedBy(func(s *models.PushSubscription) bool {
		return uuid.Validate(s.ID) == nil &&
			s.UserID == serviceUser &&
			s.Endpoint == "https://push.example.com/send/abc" &&
			s.P256dh == "pub" &&
			s.Auth == "secret" &&
			s.Browser == "chrome"
	})).Return(nil)

	svc := newService(new(mockNotificationRepo), subs, new(mockPublisher))
	err := svc.RegisterSubscription(context.Background(), serviceUser, feed.PushSubscriptionRecord{
		Endpoint: "https://push.example.com/send/abc",
		Keys:     feed.SubscriptionKeys{P256dh: "pub", Auth: "secret"},
		Device:   feed.DeviceInfo{Type: "web", Browser: "chrome", Name: "chrome on windows"},
	})

	require.NoError(t, err)
	subs.AssertExpectations(t)
}
