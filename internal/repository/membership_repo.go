package repository

import (
	"context"

	"github.com/treningcentar/gymcore/internal/models"
)

// MembershipRepository reads membership records. Memberships are owned by
// the membership service; this core never writes them.
type MembershipRepository struct {
	db DBTX
}

func NewMembershipRepository(db DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) GetCurrentByUserID(
	ctx context.Context,
	userID int64,
) (*models.Membership, error) {
	query := `
		SELECT id, user_id, status, start_date, end_date, cancelled_date
		FROM memberships
		WHERE user_id = $1
		ORDER BY start_date DESC, id DESC
		LIMIT 1
	`
	var membership models.Membership
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&membership.ID,
		&membership.UserID,
		&membership.Status,
		&membership.StartDate,
		&membership.EndDate,
		&membership.CancelledDate,
	)
	if err != nil {
		return nil, err
	}
	return &membership, nil
}
