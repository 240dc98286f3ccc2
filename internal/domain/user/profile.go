package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ManufacturerProfile is the company block printed on every declaration.
// Access to the application is gated on ProfileCompleted.
type ManufacturerProfile struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User               *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CompanyName        string    `gorm:"column:company_name" json:"company_name"`
	Street             string    `gorm:"column:street" json:"street"`
	PostalCode         string    `gorm:"column:postal_code" json:"postal_code"`
	City               string    `gorm:"column:city" json:"city"`
	Phone              string    `gorm:"column:phone" json:"phone"`
	Email              string    `gorm:"column:email" json:"email"`
	PrescribingDentist string    `gorm:"column:prescribing_dentist" json:"prescribing_dentist"`
	EmailVerified      bool      `gorm:"not null;default:false;column:email_verified" json:"email_verified"`
	ProfileCompleted   bool      `gorm:"not null;default:false;column:profile_completed" json:"profile_completed"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (ManufacturerProfile) TableName() string { return "manufacturer_profile" }

func (p *ManufacturerProfile) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsComplete reports whether every field printed in the declaration header
// is filled in.
func (p *ManufacturerProfile) IsComplete() bool {
	for _, v := range []string{p.CompanyName, p.Street, p.PostalCode, p.City, p.Phone, p.Email} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// AddressLine renders "Street, PostalCode City".
func (p *ManufacturerProfile) AddressLine() string {
	city := strings.TrimSpace(strings.TrimSpace(p.PostalCode) + " " + strings.TrimSpace(p.City))
	street := strings.TrimSpace(p.Street)
	switch {
	case street == "":
		return city
	case city == "":
		return street
	default:
		return street + ", " + city
	}
}
