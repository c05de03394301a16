package repository

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"habit-planner/internal/model"
)

func quietLogger() *log.Logger {
	lg := log.New()
	lg.SetOutput(io.Discard)
	return lg
}

func newTestRepo(t *testing.T) (*ItemRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "planner.db")
	db, err := NewDB(path, quietLogger())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewItemRepository(db), path
}

func mustCreate(t *testing.T, repo *ItemRepository, item model.PlannerItem) model.PlannerItem {
	t.Helper()
	if err := repo.Create(context.Background(), &item); err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	return item
}

func ids(items []model.PlannerItem) []uint {
	out := make([]uint, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListOrdersByDateThenIDDescending(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a := mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 1), Category: model.CategoryHealth, TaskName: "a"})
	b := mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 3), Category: model.CategoryWork, TaskName: "b"})
	c := mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 1), Category: model.CategoryWork, TaskName: "c"})
	mustCreate(t, repo, model.PlannerItem{User: "someone", Date: model.NewDate(2024, 1, 2), Category: model.CategoryWork, TaskName: "d"})

	items, err := repo.List(ctx, model.ItemFilter{User: "anish"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []uint{b.ID, c.ID, a.ID}
	if !equalIDs(ids(items), want) {
		t.Fatalf("expected order %v, got %v", want, ids(items))
	}
}

func TestListFiltersComposeAndAllIsSentinel(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	day := model.NewDate(2024, 2, 10)
	water := mustCreate(t, repo, model.PlannerItem{User: "anish", Date: day, Category: model.CategoryHealth, TaskName: "Drink WATER"})
	mustCreate(t, repo, model.PlannerItem{User: "anish", Date: day, Category: model.CategoryLearning, TaskName: "Water cycle reading"})
	mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 2, 11), Category: model.CategoryHealth, TaskName: "drink water again"})

	all, err := repo.List(ctx, model.ItemFilter{User: "anish", Category: model.CategoryAll})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	none, err := repo.List(ctx, model.ItemFilter{User: "anish"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !equalIDs(ids(all), ids(none)) || len(all) != 3 {
		t.Fatalf("All sentinel should equal no filter: %v vs %v", ids(all), ids(none))
	}

	got, err := repo.List(ctx, model.ItemFilter{User: "anish", Category: model.CategoryHealth, Date: &day, Search: "water"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if !equalIDs(ids(got), []uint{water.ID}) {
		t.Fatalf("expected only %d, got %v", water.ID, ids(got))
	}

	bySearch, err := repo.List(ctx, model.ItemFilter{User: "anish", Search: "wAtEr"})
	if err != nil {
		t.Fatalf("list search: %v", err)
	}
	if len(bySearch) != 3 {
		t.Fatalf("search should be case-insensitive, got %d items", len(bySearch))
	}
}

func TestListExcludesOtherUsers(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	day := model.NewDate(2024, 3, 1)
	mine := mustCreate(t, repo, model.PlannerItem{User: "anish", Date: day, Category: model.CategoryHealth, TaskName: "Drink water"})
	mustCreate(t, repo, model.PlannerItem{User: "guest", Date: day, Category: model.CategoryHealth, TaskName: "Drink water"})
	mustCreate(t, repo, model.PlannerItem{User: "guest", Date: day, Category: model.CategoryWork, TaskName: "Guest report"})

	got, err := repo.List(ctx, model.ItemFilter{User: "anish", Category: model.CategoryAll})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !equalIDs(ids(got), []uint{mine.ID}) {
		t.Fatalf("expected only %d, got %v", mine.ID, ids(got))
	}

	got, err = repo.List(ctx, model.ItemFilter{User: "anish", Date: &day, Search: "water"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if !equalIDs(ids(got), []uint{mine.ID}) {
		t.Fatalf("expected only %d with filters, got %v", mine.ID, ids(got))
	}

	sum, err := repo.Summary(ctx, "anish")
	if err != nil || sum.TotalItems != 1 {
		t.Fatalf("summary should count one item, got %+v %v", sum, err)
	}
}

func TestCreateRejectsZeroDate(t *testing.T) {
	repo, _ := newTestRepo(t)
	err := repo.Create(context.Background(), &model.PlannerItem{User: "anish", Category: model.CategoryOther, TaskName: "No date"})
	if err == nil {
		t.Fatal("expected zero date to be refused")
	}
	if n, _ := repo.Count(context.Background()); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestListSearchTreatsWildcardsLiterally(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 1), Category: model.CategoryWork, TaskName: "100% focus"})
	mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 1), Category: model.CategoryWork, TaskName: "1000 pushups"})

	got, err := repo.List(ctx, model.ItemFilter{User: "anish", Search: "0%"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].TaskName != "100% focus" {
		t.Fatalf("expected literal %% match, got %+v", got)
	}
}

func TestUpdateChangesOnlyPatchedFields(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	details := "morning"
	orig := mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 1), Category: model.CategoryHealth, TaskName: "Drink water", Details: &details, XP: 10})

	xp := 50
	updated, found, err := repo.Update(ctx, orig.ID, model.ItemPatch{XP: &xp})
	if err != nil || !found {
		t.Fatalf("update: found=%v err=%v", found, err)
	}
	if updated.XP != 50 {
		t.Fatalf("expected xp 50, got %d", updated.XP)
	}

	stored, found, err := repo.FindByID(ctx, orig.ID)
	if err != nil || !found {
		t.Fatalf("find: found=%v err=%v", found, err)
	}
	if stored.XP != 50 || stored.TaskName != orig.TaskName || stored.Category != orig.Category ||
		stored.Date != orig.Date || stored.DetailsText() != "morning" || stored.IsDone || stored.User != orig.User {
		t.Fatalf("unexpected stored item: %+v", stored)
	}
}

func TestUpdateMissingIsNotAnError(t *testing.T) {
	repo, _ := newTestRepo(t)
	done := true
	item, found, err := repo.Update(context.Background(), 999, model.ItemPatch{IsDone: &done})
	if err != nil || found || item != nil {
		t.Fatalf("expected not found without error, got item=%v found=%v err=%v", item, found, err)
	}
}

func TestDeleteTwice(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	item := mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 1), Category: model.CategoryWork, TaskName: "x"})

	found, err := repo.Delete(ctx, item.ID)
	if err != nil || !found {
		t.Fatalf("first delete: found=%v err=%v", found, err)
	}
	found, err = repo.Delete(ctx, item.ID)
	if err != nil || found {
		t.Fatalf("second delete: found=%v err=%v", found, err)
	}
	items, err := repo.List(ctx, model.ItemFilter{User: "anish"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %v", ids(items))
	}
}

func TestSummary(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 1), Category: model.CategoryWork, TaskName: "a", XP: 10, IsDone: true})
	mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.NewDate(2024, 1, 2), Category: model.CategoryWork, TaskName: "b", XP: 25})
	mustCreate(t, repo, model.PlannerItem{User: "other", Date: model.NewDate(2024, 1, 2), Category: model.CategoryWork, TaskName: "c", XP: 99})

	s, err := repo.Summary(ctx, "anish")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalItems != 2 || s.DoneItems != 1 || s.TotalXP != 35 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestNewDBIsIdempotent(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, model.PlannerItem{User: "anish", Date: model.DateOf(time.Now()), Category: model.CategoryWork, TaskName: "persist me"})

	db, err := NewDB(path, quietLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	n, err := NewItemRepository(db).Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected row to survive re-init, got %d rows", n)
	}
}
