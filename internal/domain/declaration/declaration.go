package declaration

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/domain/user"
)

// Declaration is one conformity declaration. (UserID, Number) is unique and
// Number never changes after creation.
type Declaration struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_declaration_user_number,priority:1" json:"user_id"`
	User            *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Number          string     `gorm:"not null;uniqueIndex:idx_declaration_user_number,priority:2;column:number" json:"number"`
	JobNumber       string     `gorm:"column:job_number" json:"job_number"`
	PatientName     string     `gorm:"column:patient_name" json:"patient_name"`
	ManufactureDate time.Time  `gorm:"type:date;not null;column:manufacture_date" json:"manufacture_date"`
	PDFURL          *string    `gorm:"column:pdf_url" json:"pdf_url,omitempty"`
	PDFFileID       string     `gorm:"column:pdf_file_id" json:"-"`

	// ExtractionSnapshot keeps the reference-PDF extraction the operator
	// started from, if any.
	ExtractionSnapshot datatypes.JSON `gorm:"column:extraction_snapshot" json:"extraction_snapshot,omitempty"`

	WorkItems     []WorkItem     `gorm:"foreignKey:DeclarationID;constraint:OnDelete:CASCADE" json:"work_items"`
	MaterialItems []MaterialItem `gorm:"foreignKey:DeclarationID;constraint:OnDelete:CASCADE" json:"material_items"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Declaration) TableName() string { return "declaration" }

func (d *Declaration) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Declaration) HasPDF() bool { return d.PDFURL != nil && *d.PDFURL != "" }

// FileName is the artifact name used for the rendered PDF.
func (d *Declaration) FileName() string { return d.Number + ".pdf" }

type WorkItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeclarationID uuid.UUID `gorm:"type:uuid;not null;index:idx_work_item_line,priority:1" json:"declaration_id"`
	LineNumber    int       `gorm:"not null;index:idx_work_item_line,priority:2;column:line_number" json:"line_number"`
	Description   string    `gorm:"not null;column:description" json:"description"`
	ToothNumber   string    `gorm:"column:tooth_number" json:"tooth_number"`
	ToothShade    string    `gorm:"column:tooth_shade" json:"tooth_shade"`
}

func (WorkItem) TableName() string { return "declaration_work_item" }

func (w *WorkItem) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

type MaterialItem struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DeclarationID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_material_item_line,priority:1" json:"declaration_id"`
	LineNumber           int             `gorm:"not null;index:idx_material_item_line,priority:2;column:line_number" json:"line_number"`
	PresetID             *uuid.UUID      `gorm:"type:uuid;index;column:preset_id" json:"preset_id,omitempty"`
	Preset               *MaterialPreset `gorm:"constraint:OnDelete:SET NULL;foreignKey:PresetID;references:ID" json:"-"`
	Material             string          `gorm:"not null;column:material" json:"material"`
	Manufacturer         string          `gorm:"column:manufacturer" json:"manufacturer"`
	Composition          string          `gorm:"column:composition" json:"composition"`
	LotNumber            string          `gorm:"column:lot_number" json:"lot_number"`
	CEStatus             string          `gorm:"not null;default:Ja;column:ce_status" json:"ce_status"`
	DeviceIdentification string          `gorm:"column:device_identification" json:"device_identification"`
}

func (MaterialItem) TableName() string { return "declaration_material_item" }

func (m *MaterialItem) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
