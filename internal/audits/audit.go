// Package audits runs bias audits against registered datasets and keeps
// their outcomes: the fairness reports before and after reweighing, the
// learned weights and the reweighted partition stored as a blob.
package audits

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/pipeline"
	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/metrics"
	"github.com/JaimeStill/parity/pkg/reweighing"
)

// Audit is a stored audit run.
// Before and After describe the audited partition only.
type Audit struct {
	ID             uuid.UUID          `json:"id"`
	DatasetID      uuid.UUID          `json:"dataset_id"`
	Privileged     metrics.Group      `json:"privileged"`
	Unprivileged   metrics.Group      `json:"unprivileged"`
	Cuts           []float64          `json:"cuts"`
	Shuffle        bool               `json:"shuffle"`
	Seed           int64              `json:"seed"`
	Partition      int                `json:"partition"`
	PartitionSizes []int              `json:"partition_sizes"`
	Before         metrics.Report     `json:"before"`
	After          metrics.Report     `json:"after"`
	Weights        reweighing.Weights `json:"weights"`
	ResultKey      string             `json:"result_key"`
	CreatedAt      time.Time          `json:"created_at"`
	DatasetName    string             `json:"dataset_name"`
}

// Lines renders the stored outcome as the console report.
func (a *Audit) Lines() []string {
	return pipeline.ReportLines(a.PartitionSizes, &a.Before, &a.After, a.Weights)
}

// RunCommand starts an audit of a registered dataset.
// Unset fields fall back to the configured audit defaults.
type RunCommand struct {
	DatasetID    uuid.UUID     `json:"dataset_id"`
	Cuts         []float64     `json:"cuts,omitempty"`
	Shuffle      *bool         `json:"shuffle,omitempty"`
	Seed         *int64        `json:"seed,omitempty"`
	Partition    *int          `json:"partition,omitempty"`
	Privileged   metrics.Group `json:"privileged,omitempty"`
	Unprivileged metrics.Group `json:"unprivileged,omitempty"`
}

// Request builds the pipeline request for c over ds, taking every unset field from defaults.
func (c RunCommand) Request(defaults config.AuditConfig, ds *dataset.Dataset) pipeline.Request {
	privileged, unprivileged := defaults.Groups()

	req := pipeline.Request{
		Dataset:      ds,
		Cuts:         defaults.Cuts,
		Split:        defaults.SplitOptions(),
		Privileged:   privileged,
		Unprivileged: unprivileged,
		Partition:    defaults.Partition,
	}

	if len(c.Cuts) > 0 {
		req.Cuts = c.Cuts
	}
	if c.Shuffle != nil {
		req.Split.Shuffle = *c.Shuffle
	}
	if c.Seed != nil {
		req.Split.Seed = *c.Seed
	}
	if c.Partition != nil {
		req.Partition = *c.Partition
	}
	if len(c.Privileged) > 0 {
		req.Privileged = c.Privileged
	}
	if len(c.Unprivileged) > 0 {
		req.Unprivileged = c.Unprivileged
	}

	return req
}
