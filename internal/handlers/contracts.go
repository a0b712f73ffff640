// internal/handlers/contracts.go
package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"keratoscan-back/internal/inference"
	"keratoscan-back/internal/intake"
	"keratoscan-back/internal/models"
	"keratoscan-back/internal/report"
)

// UserStore is the credential store as the handlers need it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsernameAndRole(ctx context.Context, username string, role models.Role) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PatientDirectory is the read/delete view of the patient repository.
type PatientDirectory interface {
	ListAll(ctx context.Context) ([]*models.Patient, error)
	FindByIDNumber(ctx context.Context, idNumber string) (*models.Patient, error)
	DeleteByIDNumber(ctx context.Context, idNumber string) error
}

// BlobStore resolves and removes stored scan objects.
type BlobStore interface {
	PresignedURL(ctx context.Context, objectName string) (string, error)
	Remove(ctx context.Context, objectName string) error
}

// Classifier submits a scan to the external prediction service.
type Classifier interface {
	Classify(ctx context.Context, image io.Reader, filename string) (*inference.Prediction, error)
}

// IntakeService runs the patient intake pipeline.
type IntakeService interface {
	Intake(ctx context.Context, image intake.ScanImage, demo intake.Demographics, prediction string, progress intake.ProgressFunc) (*models.Patient, error)
}

// ReportGenerator renders patient reports.
type ReportGenerator interface {
	Generate(ctx context.Context, patient *models.Patient, newAnalysis *report.NewAnalysis) ([]byte, error)
}
