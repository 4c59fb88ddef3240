package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// RotateRefreshToken revokes the token identified by oldID and stores next in
// the same transaction. A token that was already revoked yields ErrTokenReused.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldID, oldHash string, now time.Time, next *models.RefreshToken) (uint, error) {
	var userID uint
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND token_hash = ?", oldID, oldHash).
			First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		userID = stored.UserID

		if stored.IsRevoked {
			return ErrTokenReused
		}
		if !stored.ExpiresAt.After(now) {
			return ErrTokenInvalid
		}

		if err := tx.Model(&stored).Update("is_revoked", true).Error; err != nil {
			return err
		}
		next.UserID = stored.UserID
		return tx.Create(next).Error
	})
	return userID, err
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("is_revoked", true).Error
}

func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
}

// PurgeRefreshTokens deletes expired and revoked tokens.
func (r *GormRepo) PurgeRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ? OR is_revoked = ?", now, true).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
