package pipeline

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/metrics"
	"github.com/JaimeStill/parity/pkg/reweighing"
)

// Execute runs an audit: load (unless req.Dataset is set), split, evaluate
// every partition, fit the transformer on the audited partition, reweigh every
// partition with the learned weights and evaluate again. Any failure on the
// audited partition aborts the run with no partial result. A held-out
// partition that cannot be measured is reported as skipped instead.
func Execute(ctx context.Context, rt *Runtime, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ds, err := load(ctx, rt, req)
	if err != nil {
		return nil, stageError(StageLoad, err)
	}

	parts, err := dataset.Split(ds, req.Cuts, req.Split)
	if err != nil {
		return nil, stageError(StageSplit, err)
	}

	rt.Logger.InfoContext(
		ctx, "dataset split",
		"rows", ds.Len(),
		"partitions", len(parts),
		"shuffle", req.Split.Shuffle,
		"seed", req.Split.Seed,
	)

	skipped := make([]error, len(parts))

	before, err := evaluate(ctx, parts, req, skipped)
	if err != nil {
		return nil, stageError(StageEvaluate, err)
	}

	rw := reweighing.New(req.Privileged, req.Unprivileged)
	weights, err := rw.Fit(parts[req.Partition])
	if err != nil {
		return nil, stageError(StageFit, err)
	}

	rt.Logger.InfoContext(
		ctx, "reweighing fitted",
		"partition", req.Partition,
		"weights", weights.String(),
	)

	reweighted, err := transform(ctx, rw, parts, req.Partition, skipped)
	if err != nil {
		return nil, stageError(StageReweigh, err)
	}

	after, err := evaluate(ctx, reweighted, req, skipped)
	if err != nil {
		return nil, stageError(StageVerify, err)
	}

	result := &Result{
		Rows:        ds.Len(),
		Audited:     req.Partition,
		Partitions:  make([]Partition, len(parts)),
		Weights:     weights,
		Reweighted:  reweighted[req.Partition],
		CompletedAt: time.Now(),
	}

	for i, p := range parts {
		result.Partitions[i] = Partition{
			Index:  i,
			Rows:   p.Len(),
			Before: before[i],
			After:  after[i],
		}

		if err := skipped[i]; err != nil {
			result.Partitions[i].Before = nil
			result.Partitions[i].After = nil
			result.Partitions[i].Skipped = err.Error()

			rt.Logger.WarnContext(
				ctx, "partition skipped",
				"partition", i,
				"rows", p.Len(),
				"error", err,
			)
		}
	}

	rt.Logger.InfoContext(
		ctx, "audit complete",
		"mean_difference_before", result.Before().MeanDifference,
		"mean_difference_after", result.After().MeanDifference,
		"disparate_impact_before", result.Before().DisparateImpact,
		"disparate_impact_after", result.After().DisparateImpact,
	)

	return result, nil
}

func load(ctx context.Context, rt *Runtime, req Request) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.Dataset != nil {
		return req.Dataset, nil
	}

	ds, err := dataset.Decode(req.Source, req.Format, req.Options...)
	if err != nil {
		return nil, err
	}

	rt.Logger.InfoContext(
		ctx, "dataset loaded",
		"format", req.Format,
		"rows", ds.Len(),
		"schema", ds.Schema().String(),
	)

	return ds, nil
}

// evaluate reports every partition not already marked in skipped. A failure
// on the audited partition is returned; any other failure is recorded in
// skipped and leaves that report nil.
func evaluate(
	ctx context.Context,
	parts []*dataset.Dataset,
	req Request,
	skipped []error,
) ([]*metrics.Report, error) {
	reports := make([]*metrics.Report, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(parts)))

	for i, p := range parts {
		if skipped[i] != nil {
			continue
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			r, err := report(p, req.Privileged, req.Unprivileged)
			if err != nil {
				if i == req.Partition {
					return partitionError(i, err)
				}
				skipped[i] = err
				return nil
			}

			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

func report(p *dataset.Dataset, privileged, unprivileged metrics.Group) (*metrics.Report, error) {
	e, err := metrics.New(p, privileged, unprivileged)
	if err != nil {
		return nil, err
	}
	return e.Report()
}

// transform reweighs every partition not marked in skipped. Held-out
// partitions keep their original rows when skipped so sizes stay aligned.
func transform(
	ctx context.Context,
	rw *reweighing.Reweighing,
	parts []*dataset.Dataset,
	audited int,
	skipped []error,
) ([]*dataset.Dataset, error) {
	out := make([]*dataset.Dataset, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(parts)))

	for i, p := range parts {
		if skipped[i] != nil {
			out[i] = p
			continue
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			ds, err := rw.Transform(p)
			if err != nil {
				if i == audited {
					return partitionError(i, err)
				}
				skipped[i] = err
				out[i] = p
				return nil
			}

			out[i] = ds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func workerCount(n int) int {
	return max(min(runtime.NumCPU(), n), 1)
}
