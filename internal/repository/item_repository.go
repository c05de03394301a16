package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"habit-planner/internal/model"
)

// ItemRepository handles CRUD for planner items.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// List returns the user's items matching every set filter, newest date first.
// Items sharing a date are ordered by id, most recent insert first.
func (r *ItemRepository) List(ctx context.Context, filter model.ItemFilter) ([]model.PlannerItem, error) {
	q := r.db.WithContext(ctx).Where("user = ?", filter.User)
	if filter.Category != "" && filter.Category != model.CategoryAll {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Date != nil {
		q = q.Where("date = ?", *filter.Date)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		q = q.Where(`LOWER(task_name) LIKE ? ESCAPE '\'`, pattern)
	}

	var items []model.PlannerItem
	if err := q.Order("date DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *model.PlannerItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// FindByID returns found=false when no row has the id.
func (r *ItemRepository) FindByID(ctx context.Context, id uint) (*model.PlannerItem, bool, error) {
	var item model.PlannerItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	switch {
	case err == nil:
		return &item, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("find item %d: %w", id, err)
	}
}

// Update writes only the patched columns.
func (r *ItemRepository) Update(ctx context.Context, id uint, patch model.ItemPatch) (*model.PlannerItem, bool, error) {
	item, found, err := r.FindByID(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}
	cols := patch.Apply(item)
	if len(cols) == 0 {
		return item, true, nil
	}
	if err := r.db.WithContext(ctx).Model(&model.PlannerItem{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return nil, true, fmt.Errorf("update item %d: %w", id, err)
	}
	return item, true, nil
}

// Delete reports whether a row was removed.
func (r *ItemRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.PlannerItem{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete item %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ItemRepository) Summary(ctx context.Context, user string) (model.Summary, error) {
	var s model.Summary
	err := r.db.WithContext(ctx).Model(&model.PlannerItem{}).
		Select("COUNT(*) AS total_items, COALESCE(SUM(CASE WHEN is_done THEN 1 ELSE 0 END), 0) AS done_items, COALESCE(SUM(xp), 0) AS total_xp").
		Where("user = ?", user).
		Scan(&s).Error
	if err != nil {
		return model.Summary{}, fmt.Errorf("summarize items: %w", err)
	}
	return s, nil
}

func (r *ItemRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.PlannerItem{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
