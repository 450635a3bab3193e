package core

import (
	"errors"
	"sync"
)

// ErrRunNotFound is returned for an unknown export run ID.
var ErrRunNotFound = errors.New("export run not found")

// History keeps the most recent export runs in memory, oldest evicted
// first.
type History struct {
	mu    sync.RWMutex
	limit int
	runs  []*ExportRun
	byID  map[string]*ExportRun
}

// NewHistory returns a history holding at most limit runs.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{limit: limit, byID: make(map[string]*ExportRun)}
}

// Put stores a copy of run, replacing an earlier copy with the same ID.
func (h *History) Put(run *ExportRun) {
	c := run.clone()

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.byID[c.ID]; ok {
		for i, r := range h.runs {
			if r.ID == c.ID {
				h.runs[i] = c
				break
			}
		}
		h.byID[c.ID] = c
		return
	}

	h.runs = append(h.runs, c)
	h.byID[c.ID] = c
	if len(h.runs) > h.limit {
		evicted := h.runs[0]
		h.runs = h.runs[1:]
		delete(h.byID, evicted.ID)
	}
}

// Get returns a copy of the run with the given ID.
func (h *History) Get(id string) (*ExportRun, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	run, ok := h.byID[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run.clone(), nil
}

// List returns copies of all runs, newest first.
func (h *History) List() []*ExportRun {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*ExportRun, 0, len(h.runs))
	for i := len(h.runs) - 1; i >= 0; i-- {
		out = append(out, h.runs[i].clone())
	}
	return out
}

// clone copies the run and its target slice. Reports are shared; they are
// not modified once a target finishes.
func (r *ExportRun) clone() *ExportRun {
	c := *r
	c.Targets = append([]TargetResult(nil), r.Targets...)
	return &c
}
