package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/workly/internal/logging"
)

// fakeStore is an in-memory Store that follows the same transition rules as PGStore.
type fakeStore struct {
	mu      sync.Mutex
	orders  map[string]*Order
	reviews []Review
	jobs    map[string]*Job
	threads map[string][2]string

	createErr error
	listErr   error
	reviewErr error
	transErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  make(map[string]*Order),
		jobs:    make(map[string]*Job),
		threads: make(map[string][2]string),
	}
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) CreateOrder(_ context.Context, in NewOrder) (*Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	o := &Order{
		ID:          uuid.NewString(),
		ThreadID:    in.ThreadID,
		TaskID:      in.TaskID,
		ClientID:    in.ClientID,
		ProviderID:  in.ProviderID,
		Title:       in.Title,
		Location:    in.Location,
		DateTimeISO: in.DateTimeISO,
		PriceEur:    in.PriceEur,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (f *fakeStore) TransitionOrder(_ context.Context, orderID, userID string, action Action) (*Order, error) {
	if f.transErr != nil {
		return nil, f.transErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := Transitions[action]
	o, ok := f.orders[orderID]
	if !ok || !t.Permits(o, userID) {
		return nil, ErrOrderNotFound
	}
	if !t.Allows(o.Status) {
		return nil, &TransitionError{Action: action, From: o.Status}
	}
	o.Status = t.To
	o.UpdatedAt = time.Now().UTC()
	if t.To == StatusPaid {
		paid := o.UpdatedAt
		o.PaidAt = &paid
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ListThreadOrders(_ context.Context, threadID string) ([]Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Order
	for _, o := range f.orders {
		if o.ThreadID != nil && *o.ThreadID == threadID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) IsThreadParticipant(_ context.Context, threadID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.threads[threadID]
	return ok && (p[0] == userID || p[1] == userID), nil
}

func (f *fakeStore) GetJobReview(_ context.Context, jobID string) (*Review, error) {
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.JobID == jobID {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListProviderReviews(_ context.Context, providerID string) ([]Review, error) {
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Review
	for _, r := range f.reviews {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) CreateReview(_ context.Context, in NewReview) (*Review, error) {
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.JobID == in.JobID {
			return nil, ErrReviewExists
		}
	}
	for _, o := range f.orders {
		if o.TaskID == in.JobID && o.ClientID == in.ClientID && (o.Status == StatusCompleted || o.Status == StatusPaid) {
			orderID := o.ID
			r := Review{
				ID:         uuid.NewString(),
				JobID:      in.JobID,
				OrderID:    &orderID,
				ClientID:   o.ClientID,
				ProviderID: o.ProviderID,
				Rating:     in.Rating,
				Comment:    in.Comment,
				CreatedAt:  time.Now().UTC(),
			}
			f.reviews = append(f.reviews, r)
			return &r, nil
		}
	}
	return nil, ErrNotReviewable
}

func (f *fakeStore) ListOpenJobs(_ context.Context, limit, offset int) ([]Job, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Job
	for _, j := range f.jobs {
		if j.Status == JobOpen {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Job{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetJob(_ context.Context, id string) (*Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeStore) CreateJob(_ context.Context, in NewJob) (*Job, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j := &Job{
		ID:          uuid.NewString(),
		ClientID:    in.ClientID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		BudgetEur:   in.BudgetEur,
		Status:      JobOpen,
		CreatedAt:   time.Now().UTC(),
	}
	f.jobs[j.ID] = j
	cp := *j
	return &cp, nil
}

// seedOrder stores an order directly in the given status.
func (f *fakeStore) seedOrder(clientID, providerID string, status OrderStatus, threadID *string) *Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	o := &Order{
		ID:          uuid.NewString(),
		ThreadID:    threadID,
		TaskID:      uuid.NewString(),
		ClientID:    clientID,
		ProviderID:  providerID,
		Title:       "Fix the sink",
		DateTimeISO: now.Add(24 * time.Hour),
		PriceEur:    80,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.orders[o.ID] = o
	cp := *o
	return &cp
}

type recordedEvent struct {
	threadID  string
	eventType string
	data      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingBroadcaster) Publish(threadID, eventType string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{threadID, eventType, data})
}

// newTestEcho wires the handler with a header-based stand-in for the auth middleware.
func newTestEcho(store Store, events Broadcaster) *echo.Echo {
	e := echo.New()
	h := NewHandler(Dependencies{Store: store, Events: events, Logger: logging.Discard()})
	auth := e.Group("", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if uid := c.Request().Header.Get("X-Test-User"); uid != "" {
				c.Set("user_id", uid)
			}
			return next(c)
		}
	})
	h.Register(e.Group(""), auth)
	return e
}

func doRequest(t *testing.T, e *echo.Echo, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
