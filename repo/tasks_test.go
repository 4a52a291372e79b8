package repo

import (
	"context"
	"reflect"
	"testing"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

func TestAddTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := NewTasks(store, log.New())

	added, err := r.Add(ctx, "b1", "Write docs", "for the repo", "", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Status != domain.StatusToDo {
		t.Fatalf("expected status to default to To Do, got %q", added.Status)
	}
	if added.ID == "" || added.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", added)
	}

	tasks, err := r.FetchAll(ctx, "b1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Write docs" || got.Description != "for the repo" || got.Status != domain.StatusToDo {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestAddTaskCreationOrderIsStable(t *testing.T) {
	ctx := context.Background()
	r := NewTasks(newMemStore(), log.New())

	first, _ := r.Add(ctx, "b1", "one", "", domain.StatusToDo, "")
	second, _ := r.Add(ctx, "b1", "two", "", domain.StatusToDo, "")
	if !first.CreatedAt.Before(second.CreatedAt) {
		t.Fatalf("expected strictly increasing timestamps, got %v then %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestUpdateTaskIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := NewTasks(store, log.New())
	added, _ := r.Add(ctx, "b1", "title", "desc", domain.StatusToDo, "u2")

	title := "X"
	patch := domain.TaskPatch{Title: &title}
	if err := r.Update(ctx, "b1", added.ID, patch); err != nil {
		t.Fatalf("first update: %v", err)
	}
	once, _ := r.FetchAll(ctx, "b1")
	if err := r.Update(ctx, "b1", added.ID, patch); err != nil {
		t.Fatalf("second update: %v", err)
	}
	twice, _ := r.FetchAll(ctx, "b1")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected identical state after repeated update: %#v vs %#v", once, twice)
	}
	if twice[0].Title != "X" || twice[0].Description != "desc" || twice[0].AssignedTo != "u2" {
		t.Fatalf("unexpected merged task: %+v", twice[0])
	}
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := NewTasks(store, log.New())
	added, _ := r.Add(ctx, "b1", "title", "", domain.StatusToDo, "")

	if err := r.Delete(ctx, "b1", added.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tasks, _ := r.FetchAll(ctx, "b1")
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
	if err := r.Delete(ctx, "b1", added.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}
