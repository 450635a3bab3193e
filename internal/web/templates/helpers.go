// Package templates renders the HTML pages of the export report surface.
//
// Components live in .templ files; run `templ generate` after editing them.
package templates

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/authorworks/internal/export"
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func duration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

// reportSummary is the one-line description above a target's table.
func reportSummary(rep *export.Report) string {
	s := fmt.Sprintf("Mode %s, %d relations filtered, took %s.", rep.Mode, rep.FilteredRelations, duration(rep.Duration))
	if rep.Artifact != "" {
		s += " Artifact " + rep.Artifact + "."
	}
	return s
}
