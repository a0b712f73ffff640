// internal/intake/contracts.go
package intake

import (
	"context"
	"io"

	"keratoscan-back/internal/models"
	"keratoscan-back/internal/storage"
)

// The MinIO client is the production BlobStore.
var _ BlobStore = (*storage.MinIOClient)(nil)

// PatientStore is the slice of the patient repository the pipeline needs.
type PatientStore interface {
	// MaxIDNumber returns the greatest existing identifier, "" when the
	// repository is empty.
	MaxIDNumber(ctx context.Context) (string, error)
	Insert(ctx context.Context, patient *models.Patient) error
}

// TxPatientStore is a PatientStore that can scope work to one transaction.
// The store passed to fn must serialize MaxIDNumber against concurrent
// transactions so allocated identifiers are unique.
type TxPatientStore interface {
	PatientStore
	InTransaction(ctx context.Context, fn func(PatientStore) error) error
}

// BlobStore is the slice of the object store the pipeline needs.
type BlobStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectName string) error
}
