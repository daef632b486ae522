package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Init connects to Postgres and makes sure the tables the handlers use exist.
func Init(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	logger.Info("connected to postgres")

	for _, step := range []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"profiles", ensureProfilesTable},
		{"jobs", ensureJobsTable},
		{"threads", ensureThreadsTable},
		{"orders", ensureOrdersSchema},
		{"reviews", ensureReviewsTable},
	} {
		if err := step.fn(ctx, pool); err != nil {
			logger.Error("schema bootstrap failed", slog.String("table", step.name), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("schema ensured", slog.String("table", step.name))
	}

	return pool, nil
}

// tableExists reports whether public.<name> is present.
func tableExists(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = $1
        )`, name).Scan(&exists)
	return exists, err
}

// constraintExists reports whether table carries a constraint called name.
func constraintExists(ctx context.Context, pool *pgxpool.Pool, table, name string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM pg_constraint
            WHERE conrelid = to_regclass($1) AND conname = $2
        )`, "public."+table, name).Scan(&exists)
	return exists, err
}

func ensureProfilesTable(ctx context.Context, pool *pgxpool.Pool) error {
	if ok, err := tableExists(ctx, pool, "profiles"); err != nil || ok {
		return err
	}
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS profiles (
            id UUID PRIMARY KEY,
            display_name TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'client' CHECK (role IN ('client','provider','admin')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	return err
}

func ensureJobsTable(ctx context.Context, pool *pgxpool.Pool) error {
	if ok, err := tableExists(ctx, pool, "jobs"); err != nil || ok {
		return err
	}
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS jobs (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            client_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            location TEXT NULL,
            budget_eur DOUBLE PRECISION NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open','closed')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs(status, created_at DESC);
    `)
	return err
}

func ensureThreadsTable(ctx context.Context, pool *pgxpool.Pool) error {
	if ok, err := tableExists(ctx, pool, "threads"); err != nil || ok {
		return err
	}
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS threads (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            task_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
            client_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            provider_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	return err
}

// ensureOrdersSchema creates orders and adds the status constraint when it is missing.
func ensureOrdersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            thread_id UUID NULL REFERENCES threads(id) ON DELETE SET NULL,
            task_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
            client_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            provider_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            location TEXT NULL,
            scheduled_at TIMESTAMPTZ NOT NULL,
            price_eur DOUBLE PRECISION NOT NULL CHECK (price_eur <> 'NaN' AND price_eur < 'Infinity' AND price_eur > '-Infinity'),
            status TEXT NOT NULL DEFAULT 'pending',
            paid_at TIMESTAMPTZ NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_orders_thread ON orders(thread_id, created_at);
    `)
	if err != nil {
		return err
	}

	if ok, err := constraintExists(ctx, pool, "orders", "orders_status_check"); err != nil || ok {
		return err
	}
	_, err = pool.Exec(ctx, `
        ALTER TABLE orders
        ADD CONSTRAINT orders_status_check
        CHECK (status IN ('pending', 'accepted', 'declined', 'completed', 'paid'))`)
	return err
}

func ensureReviewsTable(ctx context.Context, pool *pgxpool.Pool) error {
	if ok, err := tableExists(ctx, pool, "reviews"); err != nil || ok {
		return err
	}
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS reviews (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            job_id UUID NOT NULL UNIQUE REFERENCES jobs(id) ON DELETE CASCADE,
            order_id UUID NULL REFERENCES orders(id) ON DELETE SET NULL,
            client_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            provider_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
            comment TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_reviews_provider_created ON reviews(provider_id, created_at DESC);
    `)
	return err
}
