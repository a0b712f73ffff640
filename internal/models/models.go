// internal/models/models.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of an account.
type Role string

const (
	RoleIT          Role = "it"
	RoleDoctor      Role = "doctor"
	RoleTopographer Role = "topographer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleIT, RoleDoctor, RoleTopographer:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`
	Password  string         `gorm:"not null" json:"-"`
	Role      Role           `gorm:"not null" json:"role"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Patient struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	IDNumber   string    `gorm:"uniqueIndex;not null" json:"id_number"`
	FirstName  string    `gorm:"not null" json:"first_name"`
	LastName   string    `gorm:"not null" json:"last_name"`
	Age        int       `gorm:"not null" json:"age"`
	Gender     string    `gorm:"not null" json:"gender"` // male, female, other
	Prediction string    `json:"prediction"`
	Report     string    `json:"report"`
	DateTime   time.Time `json:"date_time"`
	// ImagePath is the object name inside the scan bucket. It is presigned
	// into a URL on every read and never exposed raw.
	ImagePath string         `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FormatPrediction renders a classifier result the way it is stored on the
// patient record and printed in reports.
func FormatPrediction(label string, confidence float64) string {
	return fmt.Sprintf("Result: %s\nConfidence: %.2f%%", label, confidence*100)
}
