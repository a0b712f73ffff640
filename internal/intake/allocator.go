// internal/intake/allocator.go
package intake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// seedPatientID is issued to the very first patient.
const seedPatientID = "P2024001"

// ErrMalformedID means an existing identifier in the repository does not
// follow the P<7 digits> format. Allocation cannot proceed; the data needs
// manual correction.
var ErrMalformedID = errors.New("malformed patient id number")

// NextPatientID derives the identifier following maxID. Identifiers are "P"
// followed by seven zero-padded digits and increase monotonically; an empty
// maxID means the repository holds no patients yet.
func NextPatientID(maxID string) (string, error) {
	if maxID == "" {
		return seedPatientID, nil
	}

	digits, ok := strings.CutPrefix(maxID, "P")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMalformedID, maxID)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedID, maxID)
	}

	return fmt.Sprintf("P%07d", n+1), nil
}
