package intake

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keratoscan-back/internal/models"
)

// Compile-time checks that the mocks satisfy the pipeline contracts.
var (
	_ TxPatientStore = (*mockPatientStore)(nil)
	_ BlobStore      = (*mockBlobStore)(nil)
)

type mockPatientStore struct {
	MaxIDNumberFunc func(ctx context.Context) (string, error)
	InsertFunc      func(ctx context.Context, patient *models.Patient) error

	InsertCalls int32
}

func (m *mockPatientStore) MaxIDNumber(ctx context.Context) (string, error) {
	if m.MaxIDNumberFunc != nil {
		return m.MaxIDNumberFunc(ctx)
	}
	return "", nil
}

func (m *mockPatientStore) Insert(ctx context.Context, patient *models.Patient) error {
	atomic.AddInt32(&m.InsertCalls, 1)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, patient)
	}
	return nil
}

func (m *mockPatientStore) InTransaction(ctx context.Context, fn func(PatientStore) error) error {
	return fn(m)
}

type mockBlobStore struct {
	UploadFunc func(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)

	UploadCalls int32
	RemoveCalls int32
	Removed     []string
}

func (m *mockBlobStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	atomic.AddInt32(&m.UploadCalls, 1)
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, objectName, reader, size, contentType)
	}
	return objectName, nil
}

func (m *mockBlobStore) Remove(ctx context.Context, objectName string) error {
	atomic.AddInt32(&m.RemoveCalls, 1)
	m.Removed = append(m.Removed, objectName)
	return nil
}

func newTestService(patients *mockPatientStore, blobs *mockBlobStore) *Service {
	return NewService(patients, blobs, nil, zerolog.Nop())
}

func validDemographics() Demographics {
	return Demographics{FirstName: "Jane", LastName: "Roe", Age: 30, Gender: "female"}
}

func testImage() ScanImage {
	return ScanImage{
		Reader:      strings.NewReader("not-really-a-png"),
		Size:        16,
		Filename:    "scan.png",
		ContentType: "image/png",
	}
}

func TestIntakeFirstPatient(t *testing.T) {
	patients := &mockPatientStore{}
	blobs := &mockBlobStore{}
	svc := newTestService(patients, blobs)

	prediction := models.FormatPrediction("Keratoconus", 0.8765)
	patient, err := svc.Intake(context.Background(), testImage(), validDemographics(), prediction, nil)
	require.NoError(t, err)

	assert.Equal(t, "P2024001", patient.IDNumber)
	assert.Equal(t, "Result: Keratoconus\nConfidence: 87.65%", patient.Prediction)
	assert.Equal(t, "Jane", patient.FirstName)
	assert.Equal(t, "Roe", patient.LastName)
	assert.Equal(t, 30, patient.Age)
	assert.Equal(t, "female", patient.Gender)
	assert.NotEmpty(t, patient.ImagePath)
	assert.False(t, patient.DateTime.IsZero())
	assert.Equal(t, int32(1), patients.InsertCalls)
	assert.Equal(t, int32(1), blobs.UploadCalls)
	assert.Equal(t, int32(0), blobs.RemoveCalls)
}

func TestIntakeAllocatesNextID(t *testing.T) {
	patients := &mockPatientStore{
		MaxIDNumberFunc: func(ctx context.Context) (string, error) { return "P2024001", nil },
	}
	svc := newTestService(patients, &mockBlobStore{})

	patient, err := svc.Intake(context.Background(), testImage(), validDemographics(), "Result: Normal\nConfidence: 95.32%", nil)
	require.NoError(t, err)
	assert.Equal(t, "P2024002", patient.IDNumber)
}

func TestIntakeBlobKeyedByIDAndFilename(t *testing.T) {
	blobs := &mockBlobStore{}
	svc := newTestService(&mockPatientStore{}, blobs)

	var uploadedName string
	blobs.UploadFunc = func(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
		uploadedName = objectName
		return objectName, nil
	}

	_, err := svc.Intake(context.Background(), testImage(), validDemographics(), "", nil)
	require.NoError(t, err)
	assert.Contains(t, uploadedName, "P2024001_scan.png")
}

func TestIntakeValidationPerformsNoSideEffects(t *testing.T) {
	tests := []struct {
		name string
		demo Demographics
	}{
		{"missing first name", Demographics{LastName: "Roe", Age: 30, Gender: "female"}},
		{"missing last name", Demographics{FirstName: "Jane", Age: 30, Gender: "female"}},
		{"zero age", Demographics{FirstName: "Jane", LastName: "Roe", Gender: "female"}},
		{"unknown gender", Demographics{FirstName: "Jane", LastName: "Roe", Age: 30, Gender: "robot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patients := &mockPatientStore{}
			blobs := &mockBlobStore{}
			svc := newTestService(patients, blobs)

			_, err := svc.Intake(context.Background(), testImage(), tt.demo, "", nil)
			assert.ErrorIs(t, err, ErrInvalidDemographics)
			assert.Equal(t, int32(0), patients.InsertCalls)
			assert.Equal(t, int32(0), blobs.UploadCalls)
		})
	}
}

func TestIntakeUploadFailureInsertsNothing(t *testing.T) {
	patients := &mockPatientStore{}
	blobs := &mockBlobStore{
		UploadFunc: func(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
			return "", errors.New("connection reset")
		},
	}
	svc := newTestService(patients, blobs)

	_, err := svc.Intake(context.Background(), testImage(), validDemographics(), "", nil)
	require.Error(t, err)
	assert.Equal(t, int32(0), patients.InsertCalls)
	// Nothing was stored, so nothing needs cleaning up.
	assert.Equal(t, int32(0), blobs.RemoveCalls)
}

func TestIntakeInsertFailureCleansUpBlob(t *testing.T) {
	patients := &mockPatientStore{
		InsertFunc: func(ctx context.Context, patient *models.Patient) error {
			return errors.New("duplicate key value violates unique constraint")
		},
	}
	blobs := &mockBlobStore{}
	svc := newTestService(patients, blobs)

	_, err := svc.Intake(context.Background(), testImage(), validDemographics(), "", nil)
	require.Error(t, err)
	require.Equal(t, int32(1), blobs.RemoveCalls)
	assert.Contains(t, blobs.Removed[0], "P2024001_scan.png")
}

func TestIntakeMalformedMaxIDAborts(t *testing.T) {
	patients := &mockPatientStore{
		MaxIDNumberFunc: func(ctx context.Context) (string, error) { return "BROKEN", nil },
	}
	blobs := &mockBlobStore{}
	svc := newTestService(patients, blobs)

	_, err := svc.Intake(context.Background(), testImage(), validDemographics(), "", nil)
	assert.ErrorIs(t, err, ErrMalformedID)
	assert.Equal(t, int32(0), blobs.UploadCalls)
	assert.Equal(t, int32(0), patients.InsertCalls)
}

func TestIntakeProgressIsMonotonic(t *testing.T) {
	svc := newTestService(&mockPatientStore{}, &mockBlobStore{})

	var seen []int
	_, err := svc.Intake(context.Background(), testImage(), validDemographics(), "", func(pct int) {
		seen = append(seen, pct)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{10, 30, 60, 80, 100}, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}
