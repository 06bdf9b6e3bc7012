package store

import (
	"context"
	"database/sql"
	"fmt"

	"pos-service/internal/models"

	"github.com/lib/pq"
)

// GetCurrentSession returns the open session, or (nil, nil) when the store
// is closed.
func (s *Store) GetCurrentSession(ctx context.Context) (*models.StoreSession, error) {
	var session models.StoreSession
	err := s.db.GetContext(ctx, &session,
		`SELECT * FROM store_sessions
		 WHERE closed_at IS NULL
		 ORDER BY opened_at DESC LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetLastSession returns the most recently closed session, or (nil, nil)
func (s *Store) GetLastSession(ctx context.Context) (*models.StoreSession, error) {
	var session models.StoreSession
	err := s.db.GetContext(ctx, &session,
		`SELECT * FROM store_sessions
		 WHERE closed_at IS NOT NULL
		 ORDER BY closed_at DESC LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessions retrieves past (closed) sessions, newest first
func (s *Store) GetSessions(ctx context.Context, limit int) ([]models.StoreSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []models.StoreSession
	err := s.db.SelectContext(ctx, &sessions,
		`SELECT * FROM store_sessions
		 WHERE closed_at IS NOT NULL
		 ORDER BY closed_at DESC LIMIT $1`, limit)
	return sessions, err
}

// GetSessionByID retrieves a session by ID
func (s *Store) GetSessionByID(ctx context.Context, id int64) (*models.StoreSession, error) {
	var session models.StoreSession
	err := s.db.GetContext(ctx, &session, "SELECT * FROM store_sessions WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// OpenSession inserts a new open session. The partial unique index on
// closed_at IS NULL turns a concurrent open into a constraint violation,
// mapped to ErrSessionAlreadyOpen.
func (s *Store) OpenSession(ctx context.Context, openedBy string) (*models.StoreSession, error) {
	var session models.StoreSession
	err := s.db.GetContext(ctx, &session, `
		INSERT INTO store_sessions (opened_by)
		VALUES (NULLIF($1, ''))
		RETURNING *`, openedBy)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return nil, ErrSessionAlreadyOpen
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession freezes the aggregates into the session row and stamps
// closed_at. The WHERE clause makes the transition one-way: a second close
// finds no open row and reports ErrSessionClosed.
func (s *Store) CloseSession(ctx context.Context, id int64, closedBy string, sales models.SessionSales) (*models.StoreSession, error) {
	var session models.StoreSession
	err := s.db.GetContext(ctx, &session, `
		UPDATE store_sessions
		SET closed_at = NOW(),
		    closed_by = NULLIF($1, ''),
		    total_orders = $2,
		    total_items = $3,
		    total_revenue = $4,
		    cash_revenue = $5,
		    transfer_revenue = $6
		WHERE id = $7 AND closed_at IS NULL
		RETURNING *`,
		closedBy, sales.TotalOrders, sales.TotalItems, sales.TotalRevenue,
		sales.CashRevenue, sales.TransferRevenue, id)
	if err == sql.ErrNoRows {
		if _, lookupErr := s.GetSessionByID(ctx, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("%w: %d", ErrSessionClosed, id)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
