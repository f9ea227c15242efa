package repository

import (
	"context"

	"easylist/internal/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListRepository struct {
	db *gorm.DB
}

type ListRepositoryInterface interface {
	Create(ctx context.Context, list *model.List) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.List, error)
	FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.List, error)
	FindByAuthorAndSource(ctx context.Context, authorID, sourceID uuid.UUID) ([]model.List, error)
	Update(ctx context.Context, id uuid.UUID, patch model.ListPatch) (*model.List, error)
	MarkFinished(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

var _ ListRepositoryInterface = (*ListRepository)(nil)

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create inserts the list and assigns its id. A second copy of the same
// source for the same author fails with ErrDuplicateCopy.
func (r *ListRepository) Create(ctx context.Context, list *model.List) error {
	if list.Name == "" || list.AuthorID == uuid.Nil {
		return errors.Wrap(model.ErrValidation, "list name and author are required")
	}
	err := r.db.WithContext(ctx).Create(list).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateCopy
	}
	return errors.Wrap(err, "failed to create list")
}

func (r *ListRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.List, error) {
	var list model.List
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListNotFound
		}
		return nil, errors.Wrap(err, "failed to get list")
	}
	return &list, nil
}

func (r *ListRepository) FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.List, error) {
	var lists []model.List
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("updated_at DESC").Find(&lists).Error
	return lists, errors.Wrap(err, "failed to find lists by author")
}

func (r *ListRepository) FindByAuthorAndSource(ctx context.Context, authorID, sourceID uuid.UUID) ([]model.List, error) {
	var lists []model.List
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND copied_from = ?", authorID, sourceID).
		Find(&lists).Error
	return lists, errors.Wrap(err, "failed to find copies")
}

// Update applies the non-nil fields of patch and returns the stored list.
func (r *ListRepository) Update(ctx context.Context, id uuid.UUID, patch model.ListPatch) (*model.List, error) {
	cols := patch.Columns()
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&model.List{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "failed to update list")
		}
		if res.RowsAffected == 0 {
			return nil, ErrListNotFound
		}
	}
	return r.GetByID(ctx, id)
}

// MarkFinished flips is_finished to true. It reports false when the list was
// already finished or does not exist, so the flag can never go back.
func (r *ListRepository) MarkFinished(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.List{}).
		Where("id = ? AND is_finished = ?", id, false).
		Update("is_finished", true)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to mark list finished")
	}
	return res.RowsAffected == 1, nil
}

func (r *ListRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.List{}, "id = ?", id)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to delete list")
	}
	return res.RowsAffected > 0, nil
}
