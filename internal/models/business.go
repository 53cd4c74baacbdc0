package models

import "time"

// Client is a customer of the business.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Document  string    `json:"document"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	QuoteDraft    = "draft"
	QuoteSent     = "sent"
	QuoteApproved = "approved"
	QuoteRejected = "rejected"
)

// Quote is a budget offered to a client.
type Quote struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"client_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	OrderOpen       = "open"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// ServiceOrder tracks work to be done for a client.
type ServiceOrder struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"client_id"`
	QuoteID     *int64     `json:"quote_id,omitempty"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssignedTo  *int64     `json:"assigned_to,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	VisitScheduled = "scheduled"
	VisitDone      = "done"
	VisitCancelled = "cancelled"
)

// Visit is an appointment at a client site.
type Visit struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"client_id"`
	ServiceOrderID *int64    `json:"service_order_id,omitempty"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Address        string    `json:"address"`
	Notes          string    `json:"notes"`
	Status         string    `json:"status"`
	AssignedTo     *int64    `json:"assigned_to,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChatMessage is a persisted team chat message.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SenderID  int64     `json:"sender_id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityEntry is one row of the activity log.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entity_id"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Page carries list pagination.
type Page struct {
	Limit  int
	Offset int
}
