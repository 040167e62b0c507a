package audits

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/pkg/pagination"
	"github.com/JaimeStill/parity/pkg/storage"
)

// System defines the public contract for audit domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Audit], error)

	Find(ctx context.Context, id uuid.UUID) (*Audit, error)

	// Run executes the audit pipeline against a registered dataset and stores the outcome.
	// A failed run stores nothing.
	Run(ctx context.Context, cmd RunCommand) (*Audit, error)

	// Reweighted opens the stored reweighted partition of an audit. The caller must close Body.
	Reweighted(ctx context.Context, id uuid.UUID) (*storage.BlobResult, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
