package marketplace

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrJobNotFound   = errors.New("job not found")
	ErrReviewExists  = errors.New("review already exists for this job")
	ErrNotReviewable = errors.New("no completed order for this job")
)

// Action is an order lifecycle operation.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionComplete Action = "complete"
	ActionMarkPaid Action = "mark-paid"
)

// Actor says which side of an order may perform an action.
type Actor int

const (
	ActorProvider Actor = iota
	ActorClient
	ActorParticipant
)

// Transition describes one legal status change.
type Transition struct {
	From  []OrderStatus
	To    OrderStatus
	Actor Actor
}

// Transitions is the order state machine. Anything not listed here is rejected by the store.
var Transitions = map[Action]Transition{
	ActionAccept:   {From: []OrderStatus{StatusPending}, To: StatusAccepted, Actor: ActorProvider},
	ActionDecline:  {From: []OrderStatus{StatusPending, StatusAccepted}, To: StatusDeclined, Actor: ActorProvider},
	ActionComplete: {From: []OrderStatus{StatusAccepted}, To: StatusCompleted, Actor: ActorParticipant},
	ActionMarkPaid: {From: []OrderStatus{StatusCompleted}, To: StatusPaid, Actor: ActorClient},
}

// Allows reports whether the transition may start from status s.
func (t Transition) Allows(s OrderStatus) bool {
	for _, from := range t.From {
		if from == s {
			return true
		}
	}
	return false
}

// Permits reports whether userID may act on o under this transition.
func (t Transition) Permits(o *Order, userID string) bool {
	switch t.Actor {
	case ActorProvider:
		return o.ProviderID == userID
	case ActorClient:
		return o.ClientID == userID
	default:
		return o.ProviderID == userID || o.ClientID == userID
	}
}

// TransitionError is returned when the order exists but is in a status the action cannot start from.
type TransitionError struct {
	Action Action
	From   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order cannot %s from status %s", e.Action, e.From)
}

// OrderStore is the data-access helper for orders. Each method is a single statement against the backend.
type OrderStore interface {
	CreateOrder(ctx context.Context, in NewOrder) (*Order, error)
	// TransitionOrder applies action on behalf of userID. It returns ErrOrderNotFound when the
	// order does not exist or userID may not perform the action, and *TransitionError when the
	// current status does not allow it.
	TransitionOrder(ctx context.Context, orderID, userID string, action Action) (*Order, error)
	ListThreadOrders(ctx context.Context, threadID string) ([]Order, error)
	IsThreadParticipant(ctx context.Context, threadID, userID string) (bool, error)
}

// ReviewStore is the data-access helper for reviews.
type ReviewStore interface {
	// GetJobReview returns nil, nil when the job has no review.
	GetJobReview(ctx context.Context, jobID string) (*Review, error)
	ListProviderReviews(ctx context.Context, providerID string) ([]Review, error)
	CreateReview(ctx context.Context, in NewReview) (*Review, error)
}

// JobStore is the data-access helper for job postings.
type JobStore interface {
	ListOpenJobs(ctx context.Context, limit, offset int) ([]Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	CreateJob(ctx context.Context, in NewJob) (*Job, error)
}

// Store is everything the marketplace handlers need.
type Store interface {
	OrderStore
	ReviewStore
	JobStore
}
