package domain

import (
	"database/sql"
	"time"
)

// Notification channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification delivery statuses
const (
	NotificationStatusSent   = "SENT"
	NotificationStatusFailed = "FAILED"
)

// Notification is one outbound message derived from a job event. A
// notification is identified by (job_id, event_type, channel,
// recipient); redelivered events map onto the same row.
type Notification struct {
	JobID     int64
	JobToken  string
	EventType string
	Channel   string
	Recipient string
	Subject   string
	Body      string
}

// JobContacts is the recipient snapshot read from the jobs table when
// an event is processed.
type JobContacts struct {
	JobID          int64          `db:"id"`
	JobToken       string         `db:"job_token"`
	ShortCode      string         `db:"short_code"`
	Status         string         `db:"status"`
	ServiceType    string         `db:"service_type"`
	CustomerEmail  string         `db:"customer_email"`
	SupplierID     sql.NullString `db:"assigned_supplier_id"`
	EngineerName   sql.NullString `db:"engineer_name"`
	EngineerEmail  sql.NullString `db:"engineer_email"`
	EngineerPhone  sql.NullString `db:"engineer_phone"`
	ScheduledStart time.Time      `db:"scheduled_start"`
}
