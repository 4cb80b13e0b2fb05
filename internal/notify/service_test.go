package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/infrastructure/store/mocks"
	"github.com/example/quickbasket/internal/model"
	"github.com/example/quickbasket/internal/sms"
)

type fakeEmailSender struct {
	sent []string
	fail bool
}

func (f *fakeEmailSender) SendNotification(to, title, message string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestService() (*Service, *mocks.MemoryStore, *fakeEmailSender) {
	ms := mocks.NewMemoryStore()
	ms.SeedUser(model.User{ID: "user-1", Email: "asha@example.com", Phone: "+919900112233"})
	ms.SeedUser(model.User{ID: "user-nophone", Email: "no-phone@example.com"})

	emailSender := &fakeEmailSender{}
	return NewService(ms, emailSender, sms.NewLogSender(), nil), ms, emailSender
}

func TestSend_CreatesRow(t *testing.T) {
	svc, ms, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Send(ctx, SendInput{
		UserID:  "user-1",
		Type:    model.NotificationPromotion,
		Title:   "Weekend Sale",
		Message: "20% off on fresh produce",
	})

	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.False(t, result.SMSSent)
	assert.False(t, result.Notification.Read)

	list, err := ms.ListNotifications(ctx, "user-1", store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Weekend Sale", list[0].Title)
}

func TestSend_EmailAndSMSFanOut(t *testing.T) {
	svc, _, emailSender := newTestService()

	result, err := svc.Send(context.Background(), SendInput{
		UserID:    "user-1",
		Title:     "Order Update",
		Message:   "Your order is on the way",
		SendEmail: true,
		SendSMS:   true,
	})

	require.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.True(t, result.SMSSent)
	assert.Equal(t, []string{"asha@example.com"}, emailSender.sent)
}

func TestSend_EmailFailureIsAdvisory(t *testing.T) {
	svc, ms, emailSender := newTestService()
	emailSender.fail = true
	ctx := context.Background()

	result, err := svc.Send(ctx, SendInput{
		UserID:    "user-1",
		Title:     "Order Update",
		Message:   "Your order is on the way",
		SendEmail: true,
	})

	// The row persists even though delivery failed.
	require.NoError(t, err)
	assert.False(t, result.EmailSent)

	list, err := ms.ListNotifications(ctx, "user-1", store.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSend_SMSRequiresPhone(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.Send(context.Background(), SendInput{
		UserID:  "user-nophone",
		Title:   "Hello",
		Message: "World",
		SendSMS: true,
	})

	require.NoError(t, err)
	assert.False(t, result.SMSSent)
}

func TestSend_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Send(ctx, SendInput{UserID: "user-1", Title: "no message"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Send(ctx, SendInput{UserID: "user-1", Title: "t", Message: "m", Type: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Send(ctx, SendInput{UserID: "no-such-user", Title: "t", Message: "m"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSend_DefaultsToSystemType(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.Send(context.Background(), SendInput{
		UserID: "user-1", Title: "t", Message: "m",
	})

	require.NoError(t, err)
	assert.Equal(t, model.NotificationSystem, result.Notification.Type)
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Send(ctx, SendInput{UserID: "user-1", Title: "a", Message: "m"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendInput{UserID: "user-1", Title: "b", Message: "m"})
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	marked, err := svc.MarkRead(ctx, "user-1", first.Notification.ID)
	require.NoError(t, err)
	assert.True(t, marked.Read)

	count, err = svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMarkAllRead(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Send(ctx, SendInput{UserID: "user-1", Title: title, Message: "m"})
		require.NoError(t, err)
	}

	n, err := svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDelete_ScopedToUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Send(ctx, SendInput{UserID: "user-1", Title: "a", Message: "m"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "user-nophone", result.Notification.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.Delete(ctx, "user-1", result.Notification.ID)
	assert.NoError(t, err)
}
