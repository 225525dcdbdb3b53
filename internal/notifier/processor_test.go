package notifier

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callouthq/dispatch/internal/notifier/domain"
)

func testContacts() *domain.JobContacts {
	return &domain.JobContacts{
		JobID:          42,
		JobToken:       "550e8400-e29b-41d4-a716-446655440000",
		ShortCode:      "AB12CD34",
		Status:         "sent_to_engineer",
		ServiceType:    "boiler_service",
		CustomerEmail:  "customer@example.com",
		EngineerName:   sql.NullString{String: "Dana Fox", Valid: true},
		EngineerEmail:  sql.NullString{String: "dana@example.com", Valid: true},
		EngineerPhone:  sql.NullString{String: "+447700900123", Valid: true},
		ScheduledStart: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}

func testEvent(eventType string) domain.JobEvent {
	return domain.JobEvent{
		Type:     eventType,
		JobID:    42,
		JobToken: "550e8400-e29b-41d4-a716-446655440000",
	}
}

func TestBuildNotifications_CustomerEmails(t *testing.T) {
	customerEvents := []string{
		"job.created",
		"job.supplier_accepted",
		"job.engineer_accepted",
		"job.engineer_declined",
		"job.en_route",
		"job.on_site",
		"job.completed",
		"job.cancelled",
		"job.declined",
	}

	for _, eventType := range customerEvents {
		t.Run(eventType, func(t *testing.T) {
			notifications, ok := buildNotifications(testEvent(eventType), testContacts())
			require.True(t, ok)
			require.Len(t, notifications, 1)

			n := notifications[0]
			assert.Equal(t, int64(42), n.JobID)
			assert.Equal(t, eventType, n.EventType)
			assert.Equal(t, domain.ChannelEmail, n.Channel)
			assert.Equal(t, "customer@example.com", n.Recipient)
			assert.NotEmpty(t, n.Subject)
			assert.NotEmpty(t, n.Body)
		})
	}
}

func TestBuildNotifications_SentToEngineer(t *testing.T) {
	t.Run("sms and email when both contacts exist", func(t *testing.T) {
		notifications, ok := buildNotifications(testEvent("job.sent_to_engineer"), testContacts())
		require.True(t, ok)
		require.Len(t, notifications, 2)

		sms := notifications[0]
		assert.Equal(t, domain.ChannelSMS, sms.Channel)
		assert.Equal(t, "+447700900123", sms.Recipient)
		assert.Contains(t, sms.Body, "/e/AB12CD34")

		email := notifications[1]
		assert.Equal(t, domain.ChannelEmail, email.Channel)
		assert.Equal(t, "dana@example.com", email.Recipient)
		assert.Contains(t, email.Body, "AB12CD34")
	})

	t.Run("no engineer contacts yields nothing to send", func(t *testing.T) {
		contacts := testContacts()
		contacts.EngineerEmail = sql.NullString{}
		contacts.EngineerPhone = sql.NullString{}

		notifications, ok := buildNotifications(testEvent("job.sent_to_engineer"), contacts)
		assert.True(t, ok)
		assert.Empty(t, notifications)
	})
}

func TestBuildNotifications_EngineerAcceptedNamesEngineer(t *testing.T) {
	notifications, ok := buildNotifications(testEvent("job.engineer_accepted"), testContacts())
	require.True(t, ok)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Body, "Dana Fox")

	contacts := testContacts()
	contacts.EngineerName = sql.NullString{}
	notifications, ok = buildNotifications(testEvent("job.engineer_accepted"), contacts)
	require.True(t, ok)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Body, "The engineer")
}

func TestBuildNotifications_MissingCustomerEmail(t *testing.T) {
	contacts := testContacts()
	contacts.CustomerEmail = ""

	notifications, ok := buildNotifications(testEvent("job.created"), contacts)
	assert.True(t, ok)
	assert.Empty(t, notifications)
}

func TestBuildNotifications_ScheduledStartInBody(t *testing.T) {
	notifications, ok := buildNotifications(testEvent("job.created"), testContacts())
	require.True(t, ok)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Body, "Thu 20 Mar 10:00")
}

func TestBuildNotifications_UnknownEventType(t *testing.T) {
	notifications, ok := buildNotifications(testEvent("job.reticulated"), testContacts())
	assert.False(t, ok)
	assert.Nil(t, notifications)
}

func TestShouldRequeueEvent(t *testing.T) {
	n := &Notifier{}

	tests := []struct {
		name    string
		err     error
		requeue bool
	}{
		{
			name:    "job not found is permanent",
			err:     domain.ErrJobNotFound,
			requeue: false,
		},
		{
			name:    "wrapped job not found is permanent",
			err:     fmt.Errorf("lookup: %w", domain.ErrJobNotFound),
			requeue: false,
		},
		{
			name:    "max attempts exceeded is permanent",
			err:     fmt.Errorf("%w: smtp timeout", domain.ErrMaxAttemptsExceeded),
			requeue: false,
		},
		{
			name:    "invalid payload is permanent",
			err:     domain.ErrInvalidPayload,
			requeue: false,
		},
		{
			name:    "retryable error is requeued",
			err:     domain.NewRetryableError(errors.New("connection reset")),
			requeue: true,
		},
		{
			name:    "unknown error is not requeued",
			err:     errors.New("something else"),
			requeue: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.requeue, n.shouldRequeueEvent(tt.err))
		})
	}
}
