// internal/intake/intake.go
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"keratoscan-back/internal/models"
	"keratoscan-back/internal/storage"
	"keratoscan-back/pkg/metrics"
)

var ErrInvalidDemographics = errors.New("invalid demographics")

// Demographics is the draft patient data entered by the topographer. It is
// validated as a whole before the pipeline touches any external system.
type Demographics struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Age       int    `validate:"required,gt=0"`
	Gender    string `validate:"required,oneof=male female other"`
}

// ScanImage is the uploaded scan plus the metadata needed to store it.
type ScanImage struct {
	Reader      io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// ProgressFunc receives a monotonic completion percentage. UI feedback only,
// no correctness contract.
type ProgressFunc func(percent int)

// Service turns one scan image plus demographics into one persisted patient
// record: allocate identifier, upload blob, compose, insert.
type Service struct {
	patients TxPatientStore
	blobs    BlobStore
	validate *validator.Validate
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(patients TxPatientStore, blobs BlobStore, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		patients: patients,
		blobs:    blobs,
		validate: validator.New(),
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Intake runs the pipeline. prediction is the formatted result of the
// inference already performed earlier in the workflow. On any failure no
// patient record is persisted; an uploaded blob is removed again if the
// insert does not go through.
func (s *Service) Intake(ctx context.Context, image ScanImage, demo Demographics, prediction string, progress ProgressFunc) (*models.Patient, error) {
	report := func(pct int) {
		if progress != nil {
			progress(pct)
		}
	}

	if err := s.validate.Struct(demo); err != nil {
		s.countIntake("invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidDemographics, err)
	}
	report(10)

	var patient *models.Patient
	var uploadedObject string
	err := s.patients.InTransaction(ctx, func(store PatientStore) error {
		maxID, err := store.MaxIDNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to read max patient id: %w", err)
		}
		idNumber, err := NextPatientID(maxID)
		if err != nil {
			return err
		}
		report(30)

		objectName := storage.ScanObjectName(idNumber, image.Filename)
		if _, err := s.blobs.Upload(ctx, objectName, image.Reader, image.Size, image.ContentType); err != nil {
			return fmt.Errorf("failed to upload scan: %w", err)
		}
		uploadedObject = objectName
		report(60)

		record := &models.Patient{
			IDNumber:   idNumber,
			FirstName:  demo.FirstName,
			LastName:   demo.LastName,
			Age:        demo.Age,
			Gender:     demo.Gender,
			Prediction: prediction,
			Report:     "",
			DateTime:   s.now().UTC(),
			ImagePath:  objectName,
		}
		report(80)

		if err := store.Insert(ctx, record); err != nil {
			return err
		}

		patient = record
		return nil
	})
	if err != nil {
		// The transaction rolled back; the uploaded scan would otherwise be
		// orphaned.
		if uploadedObject != "" {
			s.cleanupBlob(uploadedObject)
		}
		s.countIntake("error")
		return nil, err
	}

	report(100)
	s.countIntake("success")
	s.log.Info().
		Str("id_number", patient.IDNumber).
		Str("object", patient.ImagePath).
		Msg("patient record created")
	return patient, nil
}

// cleanupBlob compensates for an upload whose record never made it into the
// repository. Best effort: a failure here leaves an orphaned blob, which is
// preferable to failing the error path.
func (s *Service) cleanupBlob(objectName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.blobs.Remove(ctx, objectName); err != nil {
		s.log.Error().Err(err).Str("object", objectName).Msg("failed to clean up orphaned scan")
	}
}

func (s *Service) countIntake(outcome string) {
	if s.metrics != nil {
		s.metrics.Intakes.WithLabelValues(outcome).Inc()
	}
}
