package datasets

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

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
	Conflict:  ErrInUse,
}

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a dataset repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "datasets"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Dataset], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryValue[int](ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count datasets: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDataset)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDataset)
	if err != nil {
		return nil, repository.MapError(err, domainErrors)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Dataset, error) {
	ds, err := dataset.Decode(bytes.NewReader(cmd.Data), cmd.Format, cmd.Options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}

	schema := ds.Schema()
	schemaJSON, err := marshalSchema(schema)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	filename := sanitizeFilename(cmd.Filename, cmd.Format)
	key := buildStorageKey(id, filename)

	name := cmd.Name
	if name == "" {
		name = filename
	}

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.Format.ContentType()); err != nil {
		return nil, fmt.Errorf("upload dataset blob: %w", err)
	}

	q := `
		INSERT INTO datasets(id, name, filename, format, content_type, size_bytes, row_count, schema, storage_key, label)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, name, filename, format, content_type, size_bytes, row_count, schema, storage_key, uploaded_at, updated_at, label`

	insertArgs := []any{
		id,
		name,
		filename,
		string(cmd.Format),
		cmd.Format.ContentType(),
		int64(len(cmd.Data)),
		ds.Len(),
		schemaJSON,
		key,
		schema.Label,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Dataset, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanDataset)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, domainErrors)
	}

	r.logger.Info(
		"dataset created",
		"id", d.ID,
		"name", d.Name,
		"rows", d.RowCount,
		"size", formatting.FormatBytes(d.SizeBytes, 1),
	)
	return &d, nil
}

func (r *repo) Open(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error) {
	d, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	blob, err := r.storage.Download(ctx, d.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download dataset blob: %w", err)
	}
	defer blob.Body.Close()

	ds, err := dataset.Decode(blob.Body, d.Format, dataset.WithSchema(d.Schema))
	if err != nil {
		return nil, fmt.Errorf("%w: stored blob: %w", ErrInvalidDataset, err)
	}

	r.logger.Debug("dataset opened", "id", id, "rows", ds.Len())
	return ds, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM datasets WHERE id = $1",
			id,
		)
	})

	if err != nil {
		return repository.MapError(err, domainErrors)
	}

	if delErr := r.storage.Delete(ctx, d.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", d.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("dataset deleted", "id", id)
	return nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("datasets/%s/%s", id, filename)
}

func sanitizeFilename(name string, format dataset.Format) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "dataset" + format.Extension()
	}
	return url.PathEscape(name)
}
