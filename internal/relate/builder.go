package relate

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/authorworks/internal/records"
)

// ErrMissingColumn is returned when a table lacks a column the builder needs.
var ErrMissingColumn = errors.New("missing column")

// Association links one author to one work.
type Association struct {
	AuthorID any
	WorkID   any
}

// Stats describes one Build call.
type Stats struct {
	Works               int
	WorksWithCandidates int
	Candidates          int
	MatchedCandidates   int
	HintMatches         int
	UnmatchedWorks      int
	Associations        int
	Duplicates          int
}

type registryEntry struct {
	id   any
	name string
}

// Builder resolves work author lists against an author registry.
type Builder struct {
	layout  records.Layout
	matcher NameMatcher
}

// NewBuilder returns a Builder. A nil matcher selects LiteralMatcher.
func NewBuilder(layout records.Layout, matcher NameMatcher) *Builder {
	if matcher == nil {
		matcher = LiteralMatcher{}
	}
	return &Builder{layout: layout, matcher: matcher}
}

// Build returns the deduplicated association set in first-seen order.
//
// Each candidate from a work's author list is matched against every author.
// When a candidate matches nobody and the work carries an author-query hint,
// the hint is matched instead. A work without matches contributes nothing.
func (b *Builder) Build(authors, works *records.Table) ([]Association, Stats, error) {
	aID, err := requireColumn(authors, b.layout.AuthorID)
	if err != nil {
		return nil, Stats{}, err
	}
	aName, err := requireColumn(authors, b.layout.AuthorName)
	if err != nil {
		return nil, Stats{}, err
	}
	wID, err := requireColumn(works, b.layout.WorkID)
	if err != nil {
		return nil, Stats{}, err
	}
	wAuthors := works.Index(b.layout.WorkAuthors)
	wHint := works.Index(b.layout.WorkAuthorQuery)

	registry := make([]registryEntry, 0, authors.Len())
	for i, row := range authors.Rows {
		name, ok := authors.Text(i, aName)
		if !ok || row[aID] == nil {
			continue
		}
		registry = append(registry, registryEntry{id: row[aID], name: b.matcher.Prepare(name)})
	}

	var (
		out   []Association
		stats Stats
		seen  = make(map[string]struct{})
	)
	for i, row := range works.Rows {
		if row[wID] == nil {
			continue
		}
		stats.Works++

		raw, _ := works.Text(i, wAuthors)
		candidates := ParseAuthorList(raw)
		if len(candidates) > 0 {
			stats.WorksWithCandidates++
		}
		hint, hasHint := works.Text(i, wHint)
		if hasHint {
			hint = b.matcher.Prepare(hint)
		}

		matched := false
		for _, cand := range candidates {
			stats.Candidates++
			matches := b.lookup(registry, b.matcher.Prepare(cand))
			if len(matches) == 0 && hasHint {
				matches = b.lookup(registry, hint)
				if len(matches) > 0 {
					stats.HintMatches++
				}
			}
			if len(matches) > 0 {
				stats.MatchedCandidates++
				matched = true
			}
			for _, authorID := range matches {
				key := records.CellString(authorID) + "\x00" + records.CellString(row[wID])
				if _, dup := seen[key]; dup {
					stats.Duplicates++
					continue
				}
				seen[key] = struct{}{}
				out = append(out, Association{AuthorID: authorID, WorkID: row[wID]})
			}
		}
		if !matched {
			stats.UnmatchedWorks++
		}
	}
	stats.Associations = len(out)
	return out, stats, nil
}

func (b *Builder) lookup(registry []registryEntry, candidate string) []any {
	var ids []any
	for _, e := range registry {
		if b.matcher.Match(candidate, e.name) {
			ids = append(ids, e.id)
		}
	}
	return ids
}

func requireColumn(t *records.Table, name string) (int, error) {
	idx := t.Index(name)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s.%s", ErrMissingColumn, t.Name, name)
	}
	return idx, nil
}
