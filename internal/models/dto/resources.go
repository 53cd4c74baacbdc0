package dto

import "time"

type ClientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

type QuoteRequest struct {
	ClientID    int64      `json:"client_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	ValidUntil  *time.Time `json:"valid_until"`
}

type ServiceOrderRequest struct {
	ClientID    int64  `json:"client_id"`
	QuoteID     *int64 `json:"quote_id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AssignedTo  *int64 `json:"assigned_to"`
}

type VisitRequest struct {
	ClientID       int64     `json:"client_id"`
	ServiceOrderID *int64    `json:"service_order_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Address        string    `json:"address"`
	Notes          string    `json:"notes"`
	Status         string    `json:"status"`
	AssignedTo     *int64    `json:"assigned_to"`
}

type ChatMessageRequest struct {
	Body string `json:"body"`
}

// ListResponse wraps paginated collections.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
