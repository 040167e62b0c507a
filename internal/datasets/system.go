package datasets

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/pagination"
)

// System defines the public contract for dataset domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Dataset], error)

	Find(ctx context.Context, id uuid.UUID) (*Dataset, error)
	Create(ctx context.Context, cmd CreateCommand) (*Dataset, error)

	// Open downloads the stored blob and decodes it with the registered schema.
	Open(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
