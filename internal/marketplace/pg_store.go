package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id::text, thread_id::text, task_id::text, client_id::text, provider_id::text,
        title, location, scheduled_at, price_eur, status, paid_at, created_at, updated_at`

const reviewColumns = `id::text, job_id::text, order_id::text, client_id::text, provider_id::text,
        rating, comment, created_at`

const jobColumns = `id::text, client_id::text, title, description, location, budget_eur, status, created_at`

// PGStore implements Store on the Postgres pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(
		&o.ID, &o.ThreadID, &o.TaskID, &o.ClientID, &o.ProviderID,
		&o.Title, &o.Location, &o.DateTimeISO, &o.PriceEur, &status, &o.PaidAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = OrderStatus(status)
	return &o, nil
}

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	err := row.Scan(
		&r.ID, &r.JobID, &r.OrderID, &r.ClientID, &r.ProviderID,
		&r.Rating, &r.Comment, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	var status string
	err := row.Scan(&j.ID, &j.ClientID, &j.Title, &j.Description, &j.Location, &j.BudgetEur, &status, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	j.Status = JobStatus(status)
	return &j, nil
}

// =========================
// Orders
// =========================

func (s *PGStore) CreateOrder(ctx context.Context, in NewOrder) (*Order, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO orders (thread_id, task_id, client_id, provider_id, title, location, scheduled_at, price_eur, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
         RETURNING `+orderColumns,
		in.ThreadID, in.TaskID, in.ClientID, in.ProviderID, in.Title, in.Location, in.DateTimeISO, in.PriceEur,
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// actorClause restricts a statement to orders userID ($2) may act on.
func actorClause(a Actor) string {
	switch a {
	case ActorProvider:
		return "provider_id = $2"
	case ActorClient:
		return "client_id = $2"
	default:
		return "(client_id = $2 OR provider_id = $2)"
	}
}

// TransitionOrder performs the status change as one conditional UPDATE. When nothing matched,
// a follow-up read tells a missing order apart from one in the wrong status.
func (s *PGStore) TransitionOrder(ctx context.Context, orderID, userID string, action Action) (*Order, error) {
	t, ok := Transitions[action]
	if !ok {
		return nil, fmt.Errorf("unknown order action %q", action)
	}

	from := make([]string, len(t.From))
	for i, st := range t.From {
		from[i] = string(st)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE orders
         SET status = $3::text,
             paid_at = CASE WHEN $3::text = 'paid' THEN NOW() ELSE paid_at END,
             updated_at = NOW()
         WHERE id = $1 AND `+actorClause(t.Actor)+` AND status = ANY($4)
         RETURNING `+orderColumns,
		orderID, userID, string(t.To), from,
	)
	o, err := scanOrder(row)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s order: %w", action, err)
	}

	var current string
	err = s.pool.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 AND `+actorClause(t.Actor),
		orderID, userID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s order: %w", action, err)
	}
	return nil, &TransitionError{Action: action, From: OrderStatus(current)}
}

func (s *PGStore) ListThreadOrders(ctx context.Context, threadID string) ([]Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE thread_id = $1 ORDER BY created_at ASC`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("list thread orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *PGStore) IsThreadParticipant(ctx context.Context, threadID, userID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM threads WHERE id = $1 AND (client_id = $2 OR provider_id = $2))`,
		threadID, userID,
	).Scan(&ok)
	return ok, err
}

// =========================
// Reviews
// =========================

func (s *PGStore) GetJobReview(ctx context.Context, jobID string) (*Review, error) {
	r, err := scanReview(s.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE job_id = $1`, jobID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job review: %w", err)
	}
	return r, nil
}

func (s *PGStore) ListProviderReviews(ctx context.Context, providerID string) ([]Review, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE provider_id = $1 ORDER BY created_at DESC`,
		providerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list provider reviews: %w", err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// CreateReview inserts a review tied to the caller's most recent finished order on the job.
func (s *PGStore) CreateReview(ctx context.Context, in NewReview) (*Review, error) {
	r, err := scanReview(s.pool.QueryRow(ctx,
		`INSERT INTO reviews (job_id, order_id, client_id, provider_id, rating, comment)
         SELECT o.task_id, o.id, o.client_id, o.provider_id, $3, $4
         FROM orders o
         WHERE o.task_id = $1 AND o.client_id = $2 AND o.status IN ('completed', 'paid')
         ORDER BY o.updated_at DESC
         LIMIT 1
         ON CONFLICT (job_id) DO NOTHING
         RETURNING `+reviewColumns,
		in.JobID, in.ClientID, in.Rating, in.Comment,
	))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE job_id = $1)`, in.JobID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, ErrReviewExists
	}
	return nil, ErrNotReviewable
}

// =========================
// Jobs
// =========================

func (s *PGStore) ListOpenJobs(ctx context.Context, limit, offset int) ([]Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = 'open' ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *PGStore) GetJob(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *PGStore) CreateJob(ctx context.Context, in NewJob) (*Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`INSERT INTO jobs (client_id, title, description, location, budget_eur)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING `+jobColumns,
		in.ClientID, in.Title, in.Description, in.Location, in.BudgetEur,
	))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}
