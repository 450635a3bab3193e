package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestHistory_PutGetList(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 4; i++ {
		h.Put(&ExportRun{ID: fmt.Sprintf("run-%d", i), Status: StatusComplete})
	}

	if _, err := h.Get("run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("oldest run should be evicted, got %v", err)
	}

	list := h.List()
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	for i, want := range []string{"run-4", "run-3", "run-2"} {
		if list[i].ID != want {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].ID, want)
		}
	}
}

func TestHistory_PutReplaces(t *testing.T) {
	h := NewHistory(5)
	h.Put(&ExportRun{ID: "a", Status: StatusRunning})
	h.Put(&ExportRun{ID: "a", Status: StatusPartial})

	run, err := h.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != StatusPartial {
		t.Errorf("Status = %s, want partial", run.Status)
	}
	if n := len(h.List()); n != 1 {
		t.Errorf("List() len = %d, want 1", n)
	}
}

func TestHistory_ReturnsCopies(t *testing.T) {
	h := NewHistory(5)
	run := &ExportRun{ID: "a", Targets: []TargetResult{{Target: "sqlite"}}}
	h.Put(run)

	run.Targets[0].Target = "changed"
	got, _ := h.Get("a")
	if got.Targets[0].Target != "sqlite" {
		t.Error("History shares the caller's target slice")
	}

	got.Status = StatusFailed
	again, _ := h.Get("a")
	if again.Status == StatusFailed {
		t.Error("Get returned the stored run instead of a copy")
	}
}
