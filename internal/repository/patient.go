// internal/repository/patient.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"keratoscan-back/internal/intake"
	"keratoscan-back/internal/models"
)

var ErrPatientNotFound = errors.New("patient not found")

// The repository is the production store behind the intake pipeline.
var _ intake.TxPatientStore = (*PatientRepository)(nil)

// PatientRepository is the gorm-backed patient store.
type PatientRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// MaxIDNumber returns the greatest existing patient identifier, or the empty
// string for an empty repository. Inside a transaction the row is locked so
// two concurrent intakes cannot allocate the same next identifier.
func (r *PatientRepository) MaxIDNumber(ctx context.Context) (string, error) {
	q := r.db.WithContext(ctx).Model(&models.Patient{})
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var patient models.Patient
	err := q.Order("id_number DESC").First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query max patient id: %w", err)
	}
	return patient.IDNumber, nil
}

// Insert persists a new patient record.
func (r *PatientRepository) Insert(ctx context.Context, patient *models.Patient) error {
	if err := r.db.WithContext(ctx).Create(patient).Error; err != nil {
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

// ListAll returns every patient record, newest first.
func (r *PatientRepository) ListAll(ctx context.Context) ([]*models.Patient, error) {
	var patients []*models.Patient
	if err := r.db.WithContext(ctx).Order("date_time DESC").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// FindByIDNumber looks a patient up by its formatted identifier.
func (r *PatientRepository) FindByIDNumber(ctx context.Context, idNumber string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}
	return &patient, nil
}

// DeleteByIDNumber removes a patient record.
func (r *PatientRepository) DeleteByIDNumber(ctx context.Context, idNumber string) error {
	res := r.db.WithContext(ctx).Where("id_number = ?", idNumber).Delete(&models.Patient{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// InTransaction runs fn against a transactional view of the repository.
// MaxIDNumber acquires a row lock inside fn, serializing identifier
// allocation across concurrent intakes.
func (r *PatientRepository) InTransaction(ctx context.Context, fn func(intake.PatientStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PatientRepository{db: tx, inTx: true})
	})
}
