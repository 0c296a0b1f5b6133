package repo

import (
	"context"
	"cyberslate/esports-api/internal/model"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchPageSize is the fixed number of teams returned per search page
const SearchPageSize = 20

var ErrCommandFilled = errors.New("command is filled")

type CommandRepo struct {
	DB *gorm.DB
}

func NewCommandRepo(db *gorm.DB) *CommandRepo {
	return &CommandRepo{DB: db}
}

type CommandSearch struct {
	Name     string
	Status   string
	IsFilled *bool
	LastID   int64
}

func (r *CommandRepo) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64

	err := r.DB.WithContext(ctx).
		Model(model.Command{}).
		Where("name = ?", name).
		Count(&count).
		Error

	return count > 0, err
}

// Create stores cmd and makes creator its first member and owner
func (r *CommandRepo) Create(ctx context.Context, cmd *model.Command, creatorID int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Users").Create(cmd).Error; err != nil {
			return err
		}

		return tx.Model(model.User{}).
			Where("id = ?", creatorID).
			Updates(map[string]any{
				"command_id":      cmd.ID,
				"is_team_creator": true,
			}).
			Error
	})
}

// FindActive returns an active team with its members loaded
func (r *CommandRepo) FindActive(ctx context.Context, id int64) (*model.Command, error) {
	var cmd model.Command

	err := r.DB.WithContext(ctx).
		Preload("Users").
		Where("id = ? AND status = ?", id, model.CommandActive).
		First(&cmd).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &cmd, nil
}

// Delete removes the team and detaches all of its members
func (r *CommandRepo) Delete(ctx context.Context, id int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCommand(tx, id)
	})
}

func deleteCommand(tx *gorm.DB, id int64) error {
	if err := tx.Model(model.User{}).
		Where("command_id = ?", id).
		Updates(map[string]any{
			"command_id":      nil,
			"is_team_creator": false,
		}).Error; err != nil {
		return err
	}

	res := tx.Where("id = ?", id).Delete(model.Command{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// refreshFilled recomputes is_filled from the current member count
func refreshFilled(tx *gorm.DB, cmdID int64) error {
	members, err := countMembers(tx, cmdID)
	if err != nil {
		return err
	}

	return tx.Model(model.Command{}).
		Where("id = ?", cmdID).
		Update("is_filled", members >= model.MaxCommandSize).
		Error
}

// Join adds the user to the team, refusing once the team is filled
func (r *CommandRepo) Join(ctx context.Context, cmdID, userID int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var cmd model.Command
		if err := q.Where("id = ? AND status = ?", cmdID, model.CommandActive).First(&cmd).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		members, err := countMembers(tx, cmdID)
		if err != nil {
			return err
		}

		if members >= model.MaxCommandSize {
			return ErrCommandFilled
		}

		if err := tx.Model(model.User{}).
			Where("id = ?", userID).
			Update("command_id", cmdID).Error; err != nil {
			return err
		}

		return tx.Model(model.Command{}).
			Where("id = ?", cmdID).
			Update("is_filled", members+1 >= model.MaxCommandSize).
			Error
	})
}

// Leave detaches the user from its team
func (r *CommandRepo) Leave(ctx context.Context, cmdID, userID int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(model.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"command_id":      nil,
				"is_team_creator": false,
			}).Error; err != nil {
			return err
		}

		return tx.Model(model.Command{}).
			Where("id = ?", cmdID).
			Update("is_filled", false).
			Error
	})
}

// Search filters teams by a case-insensitive name fragment, status and
// fill state. Pages are ordered by id descending and continue below LastID.
func (r *CommandRepo) Search(ctx context.Context, s CommandSearch) ([]model.Command, error) {
	q := r.DB.WithContext(ctx).Preload("Users")

	if s.Status != "" {
		q = q.Where("status = ?", s.Status)
	}

	if s.IsFilled != nil {
		q = q.Where("is_filled = ?", *s.IsFilled)
	}

	if name := strings.TrimSpace(s.Name); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	if s.LastID > 0 {
		q = q.Where("id < ?", s.LastID)
	}

	var cmds []model.Command

	err := q.Order("id desc").Limit(SearchPageSize).Find(&cmds).Error

	return cmds, err
}

func countMembers(tx *gorm.DB, cmdID int64) (int, error) {
	var n int64

	err := tx.Model(model.User{}).Where("command_id = ?", cmdID).Count(&n).Error

	return int(n), err
}
