// internal/handlers/patients.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"keratoscan-back/internal/intake"
	"keratoscan-back/internal/models"
	"keratoscan-back/internal/report"
	"keratoscan-back/internal/repository"
	"keratoscan-back/pkg/metrics"
)

const maxScanSize = 10 << 20 // 10MB

// scanUpload is an uploaded image pulled fully into memory and validated.
type scanUpload struct {
	data        []byte
	filename    string
	contentType string
}

// readScanUpload extracts and validates the multipart image field.
func readScanUpload(file *multipart.FileHeader) (*scanUpload, error) {
	if file.Size > maxScanSize {
		return nil, fmt.Errorf("image exceeds the 10MB limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return nil, fmt.Errorf("only JPEG and PNG files are allowed")
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload")
	}

	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, fmt.Errorf("invalid file type: %s, only JPEG and PNG allowed", contentType)
	}

	return &scanUpload{data: data, filename: file.Filename, contentType: contentType}, nil
}

// patientResponse is a patient record with its scan resolved to a URL.
type patientResponse struct {
	*models.Patient
	ImageURL string `json:"image_url,omitempty"`
}

func toResponse(c *gin.Context, blobs BlobStore, log zerolog.Logger, patient *models.Patient) patientResponse {
	resp := patientResponse{Patient: patient}
	if patient.ImagePath == "" {
		return resp
	}
	url, err := blobs.PresignedURL(c.Request.Context(), patient.ImagePath)
	if err != nil {
		log.Error().Err(err).Str("object", patient.ImagePath).Msg("failed to presign scan URL")
		return resp
	}
	resp.ImageURL = url
	return resp
}

// ListPatients returns all records, newest first, with presigned scan URLs.
func ListPatients(patients PatientDirectory, blobs BlobStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := patients.ListAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch patients"})
			return
		}

		out := make([]patientResponse, 0, len(records))
		for _, p := range records {
			out = append(out, toResponse(c, blobs, log, p))
		}
		c.JSON(http.StatusOK, out)
	}
}

// GetPatient returns a single record by its identifier.
func GetPatient(patients PatientDirectory, blobs BlobStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		patient, err := patients.FindByIDNumber(c.Request.Context(), c.Param("idNumber"))
		if err != nil {
			if errors.Is(err, repository.ErrPatientNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch patient"})
			return
		}
		c.JSON(http.StatusOK, toResponse(c, blobs, log, patient))
	}
}

// DeletePatient removes a record together with its stored scan.
func DeletePatient(patients PatientDirectory, blobs BlobStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		idNumber := c.Param("idNumber")

		patient, err := patients.FindByIDNumber(c.Request.Context(), idNumber)
		if err != nil {
			if errors.Is(err, repository.ErrPatientNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch patient"})
			return
		}

		if patient.ImagePath != "" {
			if err := blobs.Remove(c.Request.Context(), patient.ImagePath); err != nil {
				log.Error().Err(err).Str("object", patient.ImagePath).Msg("failed to remove scan for deleted patient")
			}
		}

		if err := patients.DeleteByIDNumber(c.Request.Context(), idNumber); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete patient"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// AnalyzeImage forwards a scan to the prediction service and returns the
// result without persisting anything.
func AnalyzeImage(classifier Classifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
			return
		}

		upload, err := readScanUpload(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		pred, err := classifier.Classify(c.Request.Context(), bytes.NewReader(upload.data), upload.filename)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"predicted_class": pred.PredictedClass,
			"confidence":      pred.Confidence,
			"prediction":      models.FormatPrediction(pred.PredictedClass, pred.Confidence),
		})
	}
}

// IntakePatient runs the intake pipeline: the multipart form carries the scan
// image, the demographics, and the prediction text computed by a prior
// analyze call.
func IntakePatient(svc IntakeService, blobs BlobStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
			return
		}

		upload, err := readScanUpload(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		age, _ := strconv.Atoi(c.PostForm("age"))
		demo := intake.Demographics{
			FirstName: c.PostForm("first_name"),
			LastName:  c.PostForm("last_name"),
			Age:       age,
			Gender:    c.PostForm("gender"),
		}

		patient, err := svc.Intake(c.Request.Context(),
			intake.ScanImage{
				Reader:      bytes.NewReader(upload.data),
				Size:        int64(len(upload.data)),
				Filename:    upload.filename,
				ContentType: upload.contentType,
			},
			demo,
			c.PostForm("prediction"),
			nil,
		)
		if err != nil {
			if errors.Is(err, intake.ErrInvalidDemographics) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if errors.Is(err, intake.ErrMalformedID) {
				log.Error().Err(err).Msg("patient id sequence is corrupted")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Patient ID sequence is corrupted, manual correction required"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save patient data"})
			return
		}

		c.JSON(http.StatusCreated, toResponse(c, blobs, log, patient))
	}
}

// DownloadReport renders the stored record as a PDF. A POST may attach a new
// analysis (image + prediction) which appears in the report only.
func DownloadReport(patients PatientDirectory, generator ReportGenerator, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		patient, err := patients.FindByIDNumber(c.Request.Context(), c.Param("idNumber"))
		if err != nil {
			if errors.Is(err, repository.ErrPatientNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch patient"})
			return
		}

		var newAnalysis *report.NewAnalysis
		if c.Request.Method == http.MethodPost {
			if prediction := c.PostForm("prediction"); prediction != "" {
				newAnalysis = &report.NewAnalysis{Prediction: prediction}
				if file, err := c.FormFile("image"); err == nil {
					upload, err := readScanUpload(file)
					if err != nil {
						c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
						return
					}
					newAnalysis.Image = upload.data
				}
			}
		}

		data, err := generator.Generate(c.Request.Context(), patient, newAnalysis)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
			return
		}

		m.ReportsGenerated.Inc()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename(patient)))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}
