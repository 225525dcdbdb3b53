package domain

import "time"

// JobEvent is the wire shape of a lifecycle event published by the API
// service. Status carries the job's status after the transition.
type JobEvent struct {
	Type       string    `json:"type"`
	JobID      int64     `json:"job_id"`
	JobToken   string    `json:"job_token"`
	Status     string    `json:"status"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventMessage pairs a parsed event with its RabbitMQ delivery tag
type EventMessage struct {
	Event       JobEvent
	DeliveryTag uint64
}
