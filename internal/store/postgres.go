package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements Store on Postgres. Merge semantics come from
// an ensure-row insert followed by a COALESCE update, and timestamps are
// assigned by the database, never by the application.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	var rec UserRecord
	err := s.db.QueryRow(ctx,
		`SELECT user_id, tokens_used, tokens_limit, is_premium,
		        last_reset, last_used, created_at, updated_at
		 FROM usage_records WHERE user_id = $1`, userID,
	).Scan(&rec.UserID, &rec.TokensUsed, &rec.TokensLimit, &rec.IsPremium,
		&rec.LastReset, &rec.LastUsed, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, classify("get_user", err)
	}
	return &rec, nil
}

func (s *PostgresStore) MergeUser(ctx context.Context, userID string, patch UserPatch) error {
	// Ensure the row exists; column defaults supply the free-tier values.
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_records (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return classify("merge_user", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE usage_records SET
		    tokens_used  = COALESCE($2, tokens_used),
		    tokens_limit = COALESCE($3, tokens_limit),
		    is_premium   = COALESCE($4, is_premium),
		    last_reset   = CASE WHEN $5 THEN NOW() ELSE last_reset END,
		    last_used    = CASE WHEN $6 THEN NOW() ELSE last_used END,
		    updated_at   = NOW()
		 WHERE user_id = $1`,
		userID, patch.TokensUsed, patch.TokensLimit, patch.IsPremium,
		patch.TouchLastReset, patch.TouchLastUsed)
	if err != nil {
		return classify("merge_user", err)
	}
	return nil
}

func (s *PostgresStore) InsertExchange(ctx context.Context, ex *Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO exchanges (id, user_id, agent_id, message, response)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		ex.ID, ex.UserID, ex.AgentID, ex.Message, ex.Response,
	).Scan(&ex.Timestamp)
	if err != nil {
		return classify("insert_exchange", err)
	}
	return nil
}

func (s *PostgresStore) CountExchangesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM exchanges
		 WHERE user_id = $1 AND created_at >= $2`, userID, since,
	).Scan(&count)
	if err != nil {
		return 0, classify("count_exchanges", err)
	}
	return count, nil
}

func (s *PostgresStore) GetSubscription(ctx context.Context, userID string) (*Subscription, error) {
	var sub Subscription
	err := s.db.QueryRow(ctx,
		`SELECT user_id, status, tier FROM subscriptions WHERE user_id = $1`, userID,
	).Scan(&sub.UserID, &sub.Status, &sub.Tier)
	if err != nil {
		return nil, classify("get_subscription", err)
	}
	return &sub, nil
}

// classify maps driver errors to store error kinds in exactly one place.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "3D000", "42501": // database missing, insufficient privilege
			return &Error{Kind: KindDisabled, Op: op, Err: err}
		case "57P01", "57P02", "57P03", "53300": // shutdown, crash, cannot connect, too many conns
			return &Error{Kind: KindUnavailable, Op: op, Err: err}
		}
		return &Error{Kind: KindInternal, Op: op, Err: err}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}

	return &Error{Kind: KindInternal, Op: op, Err: err}
}
