package domain

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestParseStatus(t *testing.T) {
	for _, col := range Columns() {
		got, ok := ParseStatus(string(col))
		if !ok || got != col {
			t.Fatalf("ParseStatus(%q) = %q, %v", col, got, ok)
		}
	}
	if _, ok := ParseStatus("Archived"); ok {
		t.Fatal("expected unknown column to not resolve")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty column to not resolve")
	}
}

func TestTaskMarshalOmitsEmptyAssignee(t *testing.T) {
	payload, err := sonic.Marshal(Task{ID: "t1", Title: "Title", Status: StatusToDo})
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	if strings.Contains(string(payload), "assignedTo") {
		t.Fatalf("expected assignedTo to be omitted, got %s", payload)
	}
}

func TestTaskMergeLeavesUnsetFields(t *testing.T) {
	task := Task{ID: "t1", Title: "a", Description: "b", Status: StatusToDo, AssignedTo: "u1"}
	status := StatusDone
	got := task.Merge(TaskPatch{Status: &status})
	if got.Status != StatusDone {
		t.Fatalf("expected status to change, got %q", got.Status)
	}
	if got.Title != "a" || got.Description != "b" || got.AssignedTo != "u1" {
		t.Fatalf("expected untouched fields to survive, got %+v", got)
	}
}

func TestBoardMergeCopiesSharedWith(t *testing.T) {
	shared := []string{"u1", "u2"}
	got := Board{ID: "b1"}.Merge(BoardPatch{SharedWith: &shared})
	shared[0] = "mutated"
	if got.SharedWith[0] != "u1" {
		t.Fatal("expected merged shared set to be detached from the patch slice")
	}
}
