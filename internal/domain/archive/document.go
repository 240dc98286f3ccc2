package archive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryInvoice      Category = "invoice"
	CategoryDeliveryNote Category = "delivery_note"
	CategoryCertificate  Category = "certificate"
	CategoryDeclaration  Category = "declaration"
	CategoryInstructions Category = "instructions"
	CategoryOther        Category = "other"
)

var categoryLabels = map[Category]string{
	CategoryInvoice:      "Rechnung",
	CategoryDeliveryNote: "Lieferschein",
	CategoryCertificate:  "Zertifikat",
	CategoryDeclaration:  "Konformitätserklärung",
	CategoryInstructions: "Gebrauchsanweisung",
	CategoryOther:        "Sonstiges",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string { return categoryLabels[c] }

// Categories lists the closed set in display order.
func Categories() []Category {
	return []Category{
		CategoryInvoice, CategoryDeliveryNote, CategoryCertificate,
		CategoryDeclaration, CategoryInstructions, CategoryOther,
	}
}

// Document is a user-uploaded PDF kept in cloud storage.
type Document struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_archived_document_hash,priority:1" json:"user_id"`
	Title          string     `gorm:"not null;column:title" json:"title"`
	Category       Category   `gorm:"not null;index;column:category" json:"category"`
	CustomCategory string     `gorm:"column:custom_category" json:"custom_category,omitempty"`
	DocumentDate   *time.Time `gorm:"type:date;column:document_date" json:"document_date,omitempty"`
	FileName       string     `gorm:"not null;column:file_name" json:"file_name"`
	FileID         string     `gorm:"column:file_id" json:"-"`
	FileURL        string     `gorm:"column:file_url" json:"file_url"`
	ContentHash    string     `gorm:"not null;column:content_hash;uniqueIndex:idx_archived_document_hash,priority:2" json:"content_hash"`
	PageCount      int        `gorm:"column:page_count" json:"page_count"`
	SizeBytes      int64      `gorm:"column:size_bytes" json:"size_bytes"`
	UploadedAt     time.Time  `gorm:"not null;index;column:uploaded_at" json:"uploaded_at"`
}

func (Document) TableName() string { return "archived_document" }

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	return nil
}

// DisplayCategory prefers the free-text label for "other".
func (d *Document) DisplayCategory() string {
	if d.Category == CategoryOther && d.CustomCategory != "" {
		return d.CustomCategory
	}
	return d.Category.Label()
}
