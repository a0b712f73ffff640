package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanObjectName(t *testing.T) {
	assert.Equal(t, "patient_images/P2024001_scan.png", ScanObjectName("P2024001", "scan.png"))
	// Client-supplied paths are flattened to their base name.
	assert.Equal(t, "patient_images/P2024002_scan.jpg", ScanObjectName("P2024002", "../../scan.jpg"))
}
