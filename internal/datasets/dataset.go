// Package datasets implements the dataset registry: upload, validation,
// blob storage and retrieval of audit input tables.
package datasets

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/pkg/dataset"
)

// Dataset is a registered dataset with its decoded schema and blob storage reference.
type Dataset struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Filename    string         `json:"filename"`
	Format      dataset.Format `json:"format"`
	ContentType string         `json:"content_type"`
	SizeBytes   int64          `json:"size_bytes"`
	RowCount    int            `json:"row_count"`
	Schema      dataset.Schema `json:"schema"`
	StorageKey  string         `json:"storage_key"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateCommand carries an uploaded file and the column mapping needed to decode it.
// Options are applied when decoding CSV data; JSON documents declare their own schema.
type CreateCommand struct {
	Data     []byte
	Name     string
	Filename string
	Format   dataset.Format
	Options  []dataset.Option
}
