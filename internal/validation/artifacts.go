package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"strategy-reset-lab/internal/reporting"
)

// ArtifactPaths returns the timeline and report paths of an order in dir.
func ArtifactPaths(dir, orderHash string) (timeline, report string) {
	name := strings.ToLower(orderHash)
	return filepath.Join(dir, fmt.Sprintf("timeline_%s.csv", name)),
		filepath.Join(dir, fmt.Sprintf("report_%s.md", name))
}

// WriteArtifacts writes the merged timeline CSV and the markdown report of
// an outcome into dir, creating it if needed.
func WriteArtifacts(dir string, outcome *Outcome) error {
	if outcome == nil || outcome.Result == nil || outcome.Reconciliation == nil {
		return errors.New("write artifacts: incomplete outcome")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	res := outcome.Result
	timelinePath, reportPath := ArtifactPaths(dir, res.OrderHash)

	// 1. Merged timeline with interval counts
	timeline := reporting.RenderTimelineCSV(outcome.Reconciliation.Intervals.Rows)
	if err := os.WriteFile(timelinePath, []byte(timeline), 0644); err != nil {
		return err
	}

	// 2. Report, stamped with the result time
	gen := reporting.NewGenerator(nil).WithClock(func() time.Time { return res.CreatedAt })
	report := gen.Generate(res, outcome.Reconciliation, outcome.Warnings)
	return os.WriteFile(reportPath, []byte(reporting.RenderMarkdown(report)), 0644)
}
