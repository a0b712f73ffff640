package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"keratoscan-back/internal/inference"
	"keratoscan-back/internal/intake"
	"keratoscan-back/internal/models"
	"keratoscan-back/internal/report"
	"keratoscan-back/internal/repository"
)

// Compile-time checks that the mocks satisfy the handler contracts.
var (
	_ UserStore        = (*mockUserStore)(nil)
	_ PatientDirectory = (*mockPatientDirectory)(nil)
	_ BlobStore        = (*mockBlobStore)(nil)
	_ Classifier       = (*mockClassifier)(nil)
	_ IntakeService    = (*mockIntakeService)(nil)
	_ ReportGenerator  = (*mockReportGenerator)(nil)
)

type mockUserStore struct {
	CreateFunc                func(ctx context.Context, user *models.User) error
	FindByUsernameAndRoleFunc func(ctx context.Context, username string, role models.Role) (*models.User, error)
	FindByIDFunc              func(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListFunc                  func(ctx context.Context) ([]*models.User, error)
	UpdateFunc                func(ctx context.Context, user *models.User) error
	DeleteFunc                func(ctx context.Context, id uuid.UUID) error

	DeleteCalls int
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserStore) FindByUsernameAndRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	if m.FindByUsernameAndRoleFunc != nil {
		return m.FindByUsernameAndRoleFunc(ctx, username, role)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserStore) List(ctx context.Context) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserStore) Update(ctx context.Context, user *models.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockPatientDirectory struct {
	ListAllFunc          func(ctx context.Context) ([]*models.Patient, error)
	FindByIDNumberFunc   func(ctx context.Context, idNumber string) (*models.Patient, error)
	DeleteByIDNumberFunc func(ctx context.Context, idNumber string) error

	DeleteCalls int
}

func (m *mockPatientDirectory) ListAll(ctx context.Context) ([]*models.Patient, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockPatientDirectory) FindByIDNumber(ctx context.Context, idNumber string) (*models.Patient, error) {
	if m.FindByIDNumberFunc != nil {
		return m.FindByIDNumberFunc(ctx, idNumber)
	}
	return nil, repository.ErrPatientNotFound
}

func (m *mockPatientDirectory) DeleteByIDNumber(ctx context.Context, idNumber string) error {
	m.DeleteCalls++
	if m.DeleteByIDNumberFunc != nil {
		return m.DeleteByIDNumberFunc(ctx, idNumber)
	}
	return nil
}

type mockBlobStore struct {
	PresignedURLFunc func(ctx context.Context, objectName string) (string, error)
	RemoveFunc       func(ctx context.Context, objectName string) error

	Removed []string
}

func (m *mockBlobStore) PresignedURL(ctx context.Context, objectName string) (string, error) {
	if m.PresignedURLFunc != nil {
		return m.PresignedURLFunc(ctx, objectName)
	}
	return "https://blobs.example/" + objectName, nil
}

func (m *mockBlobStore) Remove(ctx context.Context, objectName string) error {
	m.Removed = append(m.Removed, objectName)
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, objectName)
	}
	return nil
}

type mockClassifier struct {
	ClassifyFunc func(ctx context.Context, image io.Reader, filename string) (*inference.Prediction, error)
}

func (m *mockClassifier) Classify(ctx context.Context, image io.Reader, filename string) (*inference.Prediction, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, image, filename)
	}
	return nil, errors.New("ClassifyFunc not set")
}

type mockIntakeService struct {
	IntakeFunc func(ctx context.Context, image intake.ScanImage, demo intake.Demographics, prediction string, progress intake.ProgressFunc) (*models.Patient, error)
}

func (m *mockIntakeService) Intake(ctx context.Context, image intake.ScanImage, demo intake.Demographics, prediction string, progress intake.ProgressFunc) (*models.Patient, error) {
	if m.IntakeFunc != nil {
		return m.IntakeFunc(ctx, image, demo, prediction, progress)
	}
	return nil, errors.New("IntakeFunc not set")
}

type mockReportGenerator struct {
	GenerateFunc func(ctx context.Context, patient *models.Patient, newAnalysis *report.NewAnalysis) ([]byte, error)
}

func (m *mockReportGenerator) Generate(ctx context.Context, patient *models.Patient, newAnalysis *report.NewAnalysis) ([]byte, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, patient, newAnalysis)
	}
	return []byte("%PDF-1.4 stub"), nil
}
