package repo

import (
	"context"

	"github.com/dsbaciga/captains-log/internal/models"
)

// EnsureSelfCompanion creates the user's self companion if it does not
// exist yet and returns it. Idempotent: safe to call on every login.
func (r *GormRepo) EnsureSelfCompanion(ctx context.Context, userID uint, displayName string) (*models.Companion, error) {
	var companion models.Companion
	err := r.DB.WithContext(ctx).
		Where(models.Companion{UserID: userID, IsSelf: true}).
		Attrs(models.Companion{Name: displayName}).
		FirstOrCreate(&companion).Error
	if err != nil {
		return nil, err
	}
	return &companion, nil
}
