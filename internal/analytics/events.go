// Package analytics buffers product events and ships them to Kafka without
// blocking request handlers.
package analytics

import "time"

type EventType string

const (
	EventQuestion       EventType = "faq_question"
	EventNoMatch        EventType = "faq_no_match"
	EventCorpusReload   EventType = "faq_corpus_reload"
	EventBookingCreated EventType = "booking_created"
	EventBookingCancel  EventType = "booking_cancelled"
)

// QuestionEvent records one FAQ interaction.
type QuestionEvent struct {
	Type       EventType `json:"type"`
	Question   string    `json:"question"`
	Confidence int       `json:"confidence"`
	Sources    int       `json:"sources"`
	LatencyMs  int64     `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}

// BookingEvent records a booking lifecycle transition.
type BookingEvent struct {
	Type      EventType `json:"type"`
	BookingID int64     `json:"booking_id"`
	VanID     int64     `json:"van_id"`
	UserID    int64     `json:"user_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}
