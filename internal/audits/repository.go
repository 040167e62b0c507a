package audits

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/datasets"
	"github.com/JaimeStill/parity/internal/pipeline"
	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/formatting"
	"github.com/JaimeStill/parity/pkg/pagination"
	"github.com/JaimeStill/parity/pkg/query"
	"github.com/JaimeStill/parity/pkg/repository"
	"github.com/JaimeStill/parity/pkg/storage"
)

var domainErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Conflict:  datasets.ErrNotFound,
}

type repo struct {
	db         *sql.DB
	rt         *pipeline.Runtime
	defaults   config.AuditConfig
	storage    storage.System
	datasets   datasets.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit repository implementing the System interface.
// defaults must be finalized; it supplies every field a RunCommand leaves unset.
func New(
	db *sql.DB,
	defaults config.AuditConfig,
	logger *slog.Logger,
	pagination pagination.Config,
	store storage.System,
	ds datasets.System,
) System {
	return &repo{
		db:         db,
		rt:         pipeline.NewRuntime(logger),
		defaults:   defaults,
		storage:    store,
		datasets:   ds,
		logger:     logger.With("system", "audits"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Audit], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "DatasetName", "ResultKey")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryValue[int](ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count audits: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAudit)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Audit, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAudit)
	if err != nil {
		return nil, repository.MapError(err, domainErrors)
	}
	return &a, nil
}

func (r *repo) Run(ctx context.Context, cmd RunCommand) (*Audit, error) {
	ds, err := r.datasets.Open(ctx, cmd.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", cmd.DatasetID, err)
	}

	req := cmd.Request(r.defaults, ds)

	result, err := pipeline.Execute(ctx, r.rt, req)
	if err != nil {
		return nil, fmt.Errorf("audit dataset %s: %w", cmd.DatasetID, err)
	}

	id := uuid.New()
	key := buildResultKey(id)

	var buf bytes.Buffer
	if err := dataset.Encode(&buf, result.Reweighted); err != nil {
		return nil, fmt.Errorf("encode reweighted partition: %w", err)
	}
	size := int64(buf.Len())

	if err := r.storage.Upload(ctx, key, &buf, dataset.FormatJSON.ContentType()); err != nil {
		return nil, fmt.Errorf("upload reweighted partition: %w", err)
	}

	columns, err := marshalColumns(
		req.Privileged,
		req.Unprivileged,
		req.Cuts,
		result.Sizes(),
		result.Before(),
		result.After(),
		result.Weights,
	)
	if err != nil {
		r.discard(ctx, key)
		return nil, err
	}

	q := fmt.Sprintf(`
		WITH a AS (
			INSERT INTO audits(
				id, dataset_id, privileged, unprivileged, cuts, shuffle, seed,
				partition, partition_sizes, before, after, weights, result_key
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING *
		)
		SELECT %s FROM a JOIN public.datasets d ON d.id = a.dataset_id`,
		projection.Columns(),
	)

	insertArgs := []any{
		id,
		cmd.DatasetID,
		columns[0],
		columns[1],
		columns[2],
		req.Split.Shuffle,
		req.Split.Seed,
		req.Partition,
		columns[3],
		columns[4],
		columns[5],
		columns[6],
		key,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Audit, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanAudit)
	})

	if err != nil {
		r.discard(ctx, key)
		return nil, repository.MapError(err, domainErrors)
	}

	r.logger.Info(
		"audit stored",
		"id", a.ID,
		"dataset_id", a.DatasetID,
		"partition_sizes", a.PartitionSizes,
		"mean_difference_after", a.After.MeanDifference,
		"result_size", formatting.FormatBytes(size, 1),
	)
	return &a, nil
}

func (r *repo) Reweighted(ctx context.Context, id uuid.UUID) (*storage.BlobResult, error) {
	a, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	blob, err := r.storage.Download(ctx, a.ResultKey)
	if err != nil {
		return nil, fmt.Errorf("download reweighted partition: %w", err)
	}
	return blob, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM audits WHERE id = $1",
			id,
		)
	})

	if err != nil {
		return repository.MapError(err, domainErrors)
	}

	if delErr := r.storage.Delete(ctx, a.ResultKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", a.ResultKey,
			"error", delErr,
		)
	}

	r.logger.Info("audit deleted", "id", id)
	return nil
}

// discard removes an uploaded result blob whose row could not be stored.
func (r *repo) discard(ctx context.Context, key string) {
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn("compensating blob delete failed", "key", key, "error", err)
	}
}

func buildResultKey(id uuid.UUID) string {
	return fmt.Sprintf("audits/%s/reweighted.json", id)
}
