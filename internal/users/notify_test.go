package users

import (
	"context"
	"errors"
	"testing"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type memNotificationStore struct {
	created []models.Notification
	err     error
}

func (s *memNotificationStore) Create(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *n)
	return nil
}

func TestNotifyCreatesNotificationOnDelivery(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Email: "admin@fleettrack.io"}
	sender := new(mockEmailSender)
	sender.On("Send", mock.Anything, admin.Email, mock.Anything, mock.Anything).Return(nil)
	store := &memNotificationStore{}

	n := NewAdminNotifier(sender, store, zap.NewNop())
	err := n.Notify(context.Background(), admin, "ravi", "fuel budget request")

	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, admin.ID, store.created[0].UserID)
	assert.Contains(t, store.created[0].Message, "ravi")
	assert.Contains(t, store.created[0].Message, "fuel budget request")
	sender.AssertExpectations(t)
}

func TestNotifySkipsNotificationWhenDeliveryFails(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Email: "admin@fleettrack.io"}
	sender := new(mockEmailSender)
	sender.On("Send", mock.Anything, admin.Email, mock.Anything, mock.Anything).
		Return(errors.New("ses throttled"))
	store := &memNotificationStore{}

	n := NewAdminNotifier(sender, store, zap.NewNop())
	err := n.Notify(context.Background(), admin, "ravi", "hello")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeDeliveryFailure))
	assert.Empty(t, store.created, "no notification should advertise undelivered mail")
}

func TestNotifyToleratesNotificationStoreFailure(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Email: "admin@fleettrack.io"}
	sender := new(mockEmailSender)
	sender.On("Send", mock.Anything, admin.Email, mock.Anything, mock.Anything).Return(nil)
	store := &memNotificationStore{err: errors.New("db down")}

	n := NewAdminNotifier(sender, store, zap.NewNop())
	err := n.Notify(context.Background(), admin, "ravi", "hello")

	assert.NoError(t, err, "delivered mail counts as success even if the record write fails")
}
