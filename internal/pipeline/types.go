// Package pipeline runs a complete bias audit: load, split, measure,
// reweigh the audited partition and measure again.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/metrics"
	"github.com/JaimeStill/parity/pkg/reweighing"
)

// Request describes one audit run. Either Dataset or Source must be set;
// Dataset takes precedence and is never modified.
type Request struct {
	Dataset *dataset.Dataset
	Source  io.Reader
	Format  dataset.Format
	Options []dataset.Option

	Cuts  []float64
	Split dataset.SplitOptions

	Privileged   metrics.Group
	Unprivileged metrics.Group

	// Partition is the index of the partition the transformer is fitted on.
	Partition int
}

func (r *Request) validate() error {
	if r.Dataset == nil && r.Source == nil {
		return fmt.Errorf("%w: no dataset or source", ErrInvalidRequest)
	}
	if r.Partition < 0 || r.Partition > len(r.Cuts) {
		return fmt.Errorf(
			"%w: partition %d out of range for %d cuts",
			ErrInvalidRequest, r.Partition, len(r.Cuts),
		)
	}
	return nil
}

// Partition reports the fairness statistics of one split before and after
// reweighing. A held-out partition that could not be measured has nil
// reports and the reason in Skipped.
type Partition struct {
	Index   int             `json:"index"`
	Rows    int             `json:"rows"`
	Before  *metrics.Report `json:"before"`
	After   *metrics.Report `json:"after"`
	Skipped string          `json:"skipped,omitempty"`
}

// Result is the output of a successful audit run.
type Result struct {
	Rows        int                `json:"rows"`
	Audited     int                `json:"audited"`
	Partitions  []Partition        `json:"partitions"`
	Weights     reweighing.Weights `json:"weights"`
	Reweighted  *dataset.Dataset   `json:"-"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Sizes returns the row count of every partition in split order.
func (r *Result) Sizes() []int {
	sizes := make([]int, len(r.Partitions))
	for i, p := range r.Partitions {
		sizes[i] = p.Rows
	}
	return sizes
}

// Before returns the pre-reweighing report of the audited partition.
func (r *Result) Before() *metrics.Report {
	return r.Partitions[r.Audited].Before
}

// After returns the post-reweighing report of the audited partition.
func (r *Result) After() *metrics.Report {
	return r.Partitions[r.Audited].After
}

// Lines renders the console report of the audited partition.
func (r *Result) Lines() []string {
	return ReportLines(r.Sizes(), r.Before(), r.After(), r.Weights)
}

// ReportLines renders partition sizes, the headline statistics before and
// after reweighing and the learned weights as console lines.
func ReportLines(sizes []int, before, after *metrics.Report, weights reweighing.Weights) []string {
	lines := []string{fmt.Sprintf("partition sizes = %v", sizes)}
	lines = append(lines, "before reweighing:")
	for _, l := range before.Lines() {
		lines = append(lines, "  "+l)
	}
	lines = append(lines, fmt.Sprintf("weights = %s", weights))
	lines = append(lines, "after reweighing:")
	for _, l := range after.Lines() {
		lines = append(lines, "  "+l)
	}
	return lines
}
