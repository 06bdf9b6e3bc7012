package store

import (
	"context"
	"database/sql"
	"fmt"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// GetMembers retrieves all members ordered by name
func (s *Store) GetMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := s.db.SelectContext(ctx, &members, "SELECT * FROM members ORDER BY name")
	return members, err
}

// GetMemberByID retrieves a member by ID
func (s *Store) GetMemberByID(ctx context.Context, id int64) (*models.Member, error) {
	var member models.Member
	err := s.db.GetContext(ctx, &member, "SELECT * FROM members WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrMemberNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetMemberByPhone retrieves a member by normalized phone. A missing
// member returns (nil, nil) so checkout can fall through to registration.
func (s *Store) GetMemberByPhone(ctx context.Context, phone string) (*models.Member, error) {
	var member models.Member
	err := s.db.GetContext(ctx, &member, "SELECT * FROM members WHERE phone = $1", phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// SearchMembers matches name or phone, capped at 20 rows
func (s *Store) SearchMembers(ctx context.Context, query string) ([]models.Member, error) {
	var members []models.Member
	pattern := "%" + query + "%"
	err := s.db.SelectContext(ctx, &members,
		`SELECT * FROM members
		 WHERE name ILIKE $1 OR phone ILIKE $1
		 ORDER BY name LIMIT 20`, pattern)
	return members, err
}

// CreateMember inserts a new member with zeroed loyalty counters. Phone
// must already be normalized; a duplicate maps to ErrPhoneExists.
func (s *Store) CreateMember(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (name, phone, total_points, total_spent, visit_count)
		VALUES ($1, $2, 0, 0, 0)
		RETURNING id, total_points, total_spent, visit_count, created_at, updated_at`

	err := s.db.GetContext(ctx, m, query, m.Name, m.Phone)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrPhoneExists, m.Phone)
	}
	return err
}

// UpdateMember updates name/phone
func (s *Store) UpdateMember(ctx context.Context, id int64, name, phone string) (*models.Member, error) {
	var member models.Member
	err := s.db.GetContext(ctx, &member, `
		UPDATE members SET name = $1, phone = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING *`, name, phone, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrMemberNotFound, id)
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return nil, fmt.Errorf("%w: %s", ErrPhoneExists, phone)
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// DeleteMember removes a member
func (s *Store) DeleteMember(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrMemberNotFound, id)
	}
	return nil
}

// GetPointsHistory retrieves the newest ledger rows for a member
func (s *Store) GetPointsHistory(ctx context.Context, memberID int64, limit int) ([]models.PointHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var history []models.PointHistory
	err := s.db.SelectContext(ctx, &history,
		`SELECT * FROM member_points_history
		 WHERE member_id = $1
		 ORDER BY created_at DESC LIMIT $2`, memberID, limit)
	return history, err
}

// ApplyPointsDelta sets a member's balance and appends the matching ledger
// row in one transaction. The balance clamp (if any) happens in the
// service; the ledger row records whatever the caller passes.
func (s *Store) ApplyPointsDelta(ctx context.Context, memberID, newBalance int64, entry *models.PointHistory) (*models.Member, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var member models.Member
	err = tx.GetContext(ctx, &member, `
		UPDATE members SET total_points = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING *`, newBalance, memberID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrMemberNotFound, memberID)
	}
	if err != nil {
		return nil, err
	}

	if err := insertPointHistoryTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &member, nil
}

// SettleMemberAfterOrder applies the post-order settlement atomically:
// the point_settlements insert, the member counter updates, and up to two
// ledger rows all commit together. A duplicate order_id leaves every row
// untouched and reports applied=false.
func (s *Store) SettleMemberAfterOrder(
	ctx context.Context,
	memberID, orderID, orderTotal, pointsEarned, pointsRedeemed int64,
	entries []models.PointHistory,
) (*models.Member, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO point_settlements (order_id, member_id)
		 VALUES ($1, $2) ON CONFLICT (order_id) DO NOTHING`,
		orderID, memberID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record settlement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already settled; return the member as-is.
		var member models.Member
		if err := tx.GetContext(ctx, &member, "SELECT * FROM members WHERE id = $1", memberID); err != nil {
			return nil, false, err
		}
		return &member, false, tx.Commit()
	}

	var member models.Member
	err = tx.GetContext(ctx, &member, `
		UPDATE members
		SET total_points = total_points + $1,
		    total_spent  = total_spent + $2,
		    visit_count  = visit_count + 1,
		    updated_at   = NOW()
		WHERE id = $3
		RETURNING *`, pointsEarned-pointsRedeemed, orderTotal, memberID)
	if err == sql.ErrNoRows {
		return nil, false, fmt.Errorf("%w: %d", ErrMemberNotFound, memberID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to update member: %w", err)
	}

	for i := range entries {
		if err := insertPointHistoryTx(ctx, tx, &entries[i]); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &member, true, nil
}

func insertPointHistoryTx(ctx context.Context, tx *sqlx.Tx, entry *models.PointHistory) error {
	query := `
		INSERT INTO member_points_history (member_id, order_id, type, points, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := tx.QueryRowxContext(ctx, query,
		entry.MemberID, entry.OrderID, entry.Type, entry.Points, entry.Description).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append points history: %w", err)
	}
	return nil
}
