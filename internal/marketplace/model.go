package marketplace

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusDeclined  OrderStatus = "declined"
	StatusCompleted OrderStatus = "completed"
	StatusPaid      OrderStatus = "paid"
)

// Order is a contracted engagement between a client and a provider for a job.
type Order struct {
	ID          string      `json:"id"`
	ThreadID    *string     `json:"threadId"`
	TaskID      string      `json:"taskId"`
	ClientID    string      `json:"clientId"`
	ProviderID  string      `json:"providerId"`
	Title       string      `json:"title"`
	Location    *string     `json:"location"`
	DateTimeISO time.Time   `json:"dateTimeISO"`
	PriceEur    float64     `json:"priceEur"`
	Status      OrderStatus `json:"status"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewOrder is a validated creation payload.
type NewOrder struct {
	ThreadID    *string
	TaskID      string
	ClientID    string
	ProviderID  string
	Title       string
	Location    *string
	DateTimeISO time.Time
	PriceEur    float64
}

// JobStatus is open while a job accepts offers.
type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

// Job is a posted request for service that orders are placed against.
type Job struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    *string   `json:"location"`
	BudgetEur   float64   `json:"budgetEur"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewJob is a validated job posting.
type NewJob struct {
	ClientID    string
	Title       string
	Description string
	Location    *string
	BudgetEur   float64
}

// Review is feedback a client leaves for a provider after a job is done.
type Review struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	OrderID    *string   `json:"orderId"`
	ClientID   string    `json:"clientId"`
	ProviderID string    `json:"providerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewReview is a validated review submission.
type NewReview struct {
	JobID    string
	ClientID string
	Rating   int
	Comment  string
}
