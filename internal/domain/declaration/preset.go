package declaration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialPreset is a reusable set of material-item values owned by one user.
type MaterialPreset struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name                 string    `gorm:"not null;column:name" json:"name"`
	Material             string    `gorm:"not null;column:material" json:"material"`
	Manufacturer         string    `gorm:"column:manufacturer" json:"manufacturer"`
	Composition          string    `gorm:"column:composition" json:"composition"`
	LotNumber            string    `gorm:"column:lot_number" json:"lot_number"`
	CEStatus             string    `gorm:"not null;default:Ja;column:ce_status" json:"ce_status"`
	DeviceIdentification string    `gorm:"column:device_identification" json:"device_identification"`
	IsActive             bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt            time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null" json:"updated_at"`
}

func (MaterialPreset) TableName() string { return "material_preset" }

func (p *MaterialPreset) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = DefaultPresetName(p.Material, p.Manufacturer)
	}
	return nil
}

// DefaultPresetName is "<material> - <manufacturer>", or just the material
// when no manufacturer is known.
func DefaultPresetName(material, manufacturer string) string {
	material = strings.TrimSpace(material)
	manufacturer = strings.TrimSpace(manufacturer)
	if manufacturer == "" {
		return material
	}
	return material + " - " + manufacturer
}
