// Package repo wraps the relational store behind small, context aware
// repositories
package repo

import (
	"context"
	"cyberslate/esports-api/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type UserRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{DB: db}
}

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

// Taken reports whether the email or the username is already in use
func (r *UserRepo) Taken(ctx context.Context, email, username string) (bool, error) {
	var count int64

	err := r.DB.WithContext(ctx).
		Model(model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ? AND is_active = ?", email, true)
}

func (r *UserRepo) FindInactiveByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ? AND is_active = ?", email, false)
}

// Activate marks the user as verified. Activating an already active user
// is a no-op, which lets a failed verification be retried safely.
func (r *UserRepo) Activate(ctx context.Context, id int64) error {
	return r.DB.WithContext(ctx).
		Model(model.User{}).
		Where("id = ?", id).
		Update("is_active", true).
		Error
}

func (r *UserRepo) SetRole(ctx context.Context, id int64, role string) error {
	return r.DB.WithContext(ctx).
		Model(model.User{}).
		Where("id = ?", id).
		Update("role", role).
		Error
}

// Delete removes the user. A team the user created goes with them, and a
// team they were a member of gets its fill state recomputed.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		if err := tx.Delete(&u).Error; err != nil {
			return err
		}

		if u.CommandID == nil {
			return nil
		}

		if u.IsTeamCreator {
			if err := deleteCommand(tx, *u.CommandID); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			return nil
		}

		return refreshFilled(tx, *u.CommandID)
	})
}

func (r *UserRepo) first(ctx context.Context, query string, args ...any) (*model.User, error) {
	var u model.User

	err := r.DB.WithContext(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

// DeleteUnverifiedBefore removes accounts that never completed email
// verification and were created before t
func (r *UserRepo) DeleteUnverifiedBefore(ctx context.Context, t time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("is_active = ? AND created_at < ?", false, t).
		Delete(model.User{})

	return res.RowsAffected, res.Error
}
