package service

import (
	"context"
	"fmt"

	"habit-planner/internal/model"
	"habit-planner/internal/repository"
)

// PlannerService is the query and command surface used by the web UI and the bot.
// Name validation happens in the callers before Create.
type PlannerService struct {
	items *repository.ItemRepository
}

func NewPlannerService(items *repository.ItemRepository) *PlannerService {
	return &PlannerService{items: items}
}

func (s *PlannerService) List(ctx context.Context, filter model.ItemFilter) ([]model.PlannerItem, error) {
	return s.items.List(ctx, filter)
}

func (s *PlannerService) Create(ctx context.Context, input model.ItemInput) (*model.PlannerItem, error) {
	item := model.PlannerItem{
		User:     input.User,
		Date:     input.Date,
		Category: input.Category,
		TaskName: input.TaskName,
		Details:  input.Details,
		XP:       input.XP,
	}
	if item.Date.IsZero() {
		item.Date = model.Today()
	}
	if err := s.items.Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *PlannerService) Get(ctx context.Context, id uint) (*model.PlannerItem, bool, error) {
	return s.items.FindByID(ctx, id)
}

// Update applies patch to the item; found is false when the id does not exist.
func (s *PlannerService) Update(ctx context.Context, id uint, patch model.ItemPatch) (*model.PlannerItem, bool, error) {
	return s.items.Update(ctx, id, patch)
}

// ToggleDone flips is_done and returns the updated item.
func (s *PlannerService) ToggleDone(ctx context.Context, id uint) (*model.PlannerItem, bool, error) {
	item, found, err := s.items.FindByID(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}
	done := !item.IsDone
	return s.items.Update(ctx, id, model.ItemPatch{IsDone: &done})
}

func (s *PlannerService) Delete(ctx context.Context, id uint) (bool, error) {
	return s.items.Delete(ctx, id)
}

func (s *PlannerService) Summary(ctx context.Context, user string) (model.Summary, error) {
	summary, err := s.items.Summary(ctx, user)
	if err != nil {
		return model.Summary{}, fmt.Errorf("summary for %s: %w", user, err)
	}
	return summary, nil
}
