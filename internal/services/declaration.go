package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/modules/declarations/numbering"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/cloudstore"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

const (
	// numberAttempts bounds the retries after a (user_id, number) collision.
	numberAttempts = 3

	inputDateLayout = "2006-01-02"
)

var errNumberConflict = apierr.New(http.StatusConflict, "number_conflict",
	errors.New("Die Erklärungsnummer konnte nicht vergeben werden. Bitte erneut versuchen."))

type WorkItemInput struct {
	Description string `json:"description" validate:"required,max=500"`
	ToothNumber string `json:"tooth_number" validate:"max=100"`
	ToothShade  string `json:"tooth_shade" validate:"max=50"`
	Delete      bool   `json:"delete,omitempty"`
}

func (w WorkItemInput) blank() bool {
	return strings.TrimSpace(w.Description) == "" &&
		strings.TrimSpace(w.ToothNumber) == "" &&
		strings.TrimSpace(w.ToothShade) == ""
}

type MaterialItemInput struct {
	PresetID             *uuid.UUID `json:"preset_id,omitempty"`
	Material             string     `json:"material" validate:"required,max=200"`
	Manufacturer         string     `json:"manufacturer" validate:"required,max=200"`
	Composition          string     `json:"composition" validate:"required,max=500"`
	LotNumber            string     `json:"lot_number" validate:"required,max=100"`
	CEStatus             string     `json:"ce_status" validate:"required,oneof=Ja Nein"`
	DeviceIdentification string     `json:"device_identification" validate:"max=200"`
	Delete               bool       `json:"delete,omitempty"`
}

func (m MaterialItemInput) blank() bool {
	if m.PresetID != nil {
		return false
	}
	for _, v := range []string{m.Material, m.Manufacturer, m.Composition, m.LotNumber, m.CEStatus, m.DeviceIdentification} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// DeclarationInput is the submitted form. ManufactureDate is YYYY-MM-DD; a
// missing or unparsable date means today.
type DeclarationInput struct {
	JobNumber          string              `json:"job_number" validate:"max=100"`
	PatientName        string              `json:"patient_name" validate:"max=200"`
	ManufactureDate    string              `json:"manufacture_date"`
	WorkItems          []WorkItemInput     `json:"work_items" validate:"max=20,dive"`
	MaterialItems      []MaterialItemInput `json:"material_items" validate:"max=20,dive"`
	ExtractionSnapshot datatypes.JSON      `json:"extraction_snapshot,omitempty" validate:"-"`
}

// SaveResult is a persisted declaration plus the non-fatal problems that
// happened after commit.
type SaveResult struct {
	Declaration *types.Declaration `json:"declaration"`
	Warnings    []string           `json:"warnings"`
}

type DeclarationService interface {
	Create(ctx context.Context, in DeclarationInput) (*SaveResult, error)
	Update(ctx context.Context, id uuid.UUID, in DeclarationInput) (*SaveResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*types.Declaration, error)
	List(ctx context.Context, limit, offset int) ([]*types.Declaration, int64, error)
	RegeneratePDF(ctx context.Context, id uuid.UUID) (*types.Declaration, error)
	Preview(ctx context.Context, id uuid.UUID, w io.Writer) error
}

type DeclarationConfig struct {
	Location *time.Location
	Storage  StorageConfig
}

type declarationService struct {
	db              *gorm.DB
	log             *logger.Logger
	declarationRepo repos.DeclarationRepo
	presetRepo      repos.MaterialPresetRepo
	profileRepo     repos.ProfileRepo
	publisher       *declarationPublisher
	files           *cloudFiles
	loc             *time.Location
	now             Clock
}

func NewDeclarationService(
	db *gorm.DB,
	log *logger.Logger,
	declarationRepo repos.DeclarationRepo,
	presetRepo repos.MaterialPresetRepo,
	profileRepo repos.ProfileRepo,
	renderer DocumentRenderer,
	store cloudstore.Store,
	cfg DeclarationConfig,
	now Clock,
) DeclarationService {
	serviceLog := log.With("service", "DeclarationService")
	if now == nil {
		now = SystemClock
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	files := newCloudFiles(serviceLog, store, cfg.Storage)
	return &declarationService{
		db:              db,
		log:             serviceLog,
		declarationRepo: declarationRepo,
		presetRepo:      presetRepo,
		profileRepo:     profileRepo,
		publisher:       &declarationPublisher{renderer: renderer, files: files, now: now, loc: loc},
		files:           files,
		loc:             loc,
		now:             now,
	}
}

// form is a normalized, validated submission ready to persist.
type form struct {
	jobNumber       string
	patientName     string
	manufactureDate time.Time
	snapshot        datatypes.JSON
	work            []WorkItemInput
	materials       []MaterialItemInput
}

// Create assigns the next number and stores the parent and both child sets
// in one transaction. The PDF is published after commit; publishing problems
// come back as warnings.
func (ds *declarationService) Create(ctx context.Context, in DeclarationInput) (*SaveResult, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	f, err := ds.prepare(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	year := ds.now().In(ds.loc).Year()
	var d *types.Declaration
	for attempt := 1; ; attempt++ {
		d = &types.Declaration{
			UserID:             userID,
			JobNumber:          f.jobNumber,
			PatientName:        f.patientName,
			ManufactureDate:    f.manufactureDate,
			ExtractionSnapshot: f.snapshot,
		}
		err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			inner := dbctx.Context{Ctx: ctx, Tx: tx}
			last, err := ds.declarationRepo.LatestNumber(inner, userID, numbering.Prefix(year))
			if err != nil {
				return fmt.Errorf("latest number: %w", err)
			}
			if d.Number, err = numbering.Next(year, last); err != nil {
				return err
			}
			if err := ds.declarationRepo.Create(inner, d); err != nil {
				return err
			}
			work, materials := f.items(d.ID)
			if err := ds.declarationRepo.CreateItems(inner, work, materials); err != nil {
				return fmt.Errorf("create items: %w", err)
			}
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create declaration: %w", err)
		}
		ds.log.Warn("Declaration number collision", "user_id", userID, "number", d.Number, "attempt", attempt)
		if attempt == numberAttempts {
			return nil, errNumberConflict
		}
	}
	ds.log.Info("Declaration created", "user_id", userID, "declaration_id", d.ID, "number", d.Number)
	ds.files.cfg.Metrics.IncDeclarationSaved("create")

	return ds.afterSave(ctx, userID, d.ID, "")
}

// Update keeps the number, replaces both child sets and republishes the PDF.
func (ds *declarationService) Update(ctx context.Context, id uuid.UUID, in DeclarationInput) (*SaveResult, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	f, err := ds.prepare(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	var previousFileID string
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := ds.declarationRepo.GetByID(inner, userID, id)
		if err != nil {
			return err
		}
		previousFileID = existing.PDFFileID
		existing.JobNumber = f.jobNumber
		existing.PatientName = f.patientName
		existing.ManufactureDate = f.manufactureDate
		if err := ds.declarationRepo.UpdateFields(inner, existing); err != nil {
			return err
		}
		work, materials := f.items(id)
		return ds.declarationRepo.ReplaceItems(inner, id, work, materials)
	})
	if err != nil {
		return nil, notFound(err, "declaration")
	}
	ds.log.Info("Declaration updated", "user_id", userID, "declaration_id", id)
	ds.files.cfg.Metrics.IncDeclarationSaved("update")

	return ds.afterSave(ctx, userID, id, previousFileID)
}

// afterSave reloads the committed record and publishes its PDF. A replaced
// cloud file is removed once the new one is linked.
func (ds *declarationService) afterSave(ctx context.Context, userID, id uuid.UUID, previousFileID string) (*SaveResult, error) {
	d, err := ds.declarationRepo.GetByID(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, fmt.Errorf("reload declaration: %w", err)
	}
	res := &SaveResult{Declaration: d, Warnings: []string{}}
	if err := ds.publish(ctx, userID, d); err != nil {
		ds.log.Warn("Declaration PDF not published", "declaration_id", d.ID, "number", d.Number, "error", err)
		res.Warnings = append(res.Warnings, publishWarning(err))
		return res, nil
	}
	if previousFileID != "" && previousFileID != d.PDFFileID {
		ds.files.remove(ctx, previousFileID)
	}
	return res, nil
}

func (ds *declarationService) publish(ctx context.Context, userID uuid.UUID, d *types.Declaration) error {
	profile, err := ds.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load profile: %w", err)
	}
	f, err := ds.publisher.publish(ctx, d, profile)
	if err != nil {
		return err
	}
	link := f.ViewURL
	if err := ds.declarationRepo.SetPDF(dbctx.Context{Ctx: ctx}, d.ID, &link, f.ID); err != nil {
		// The file is orphaned without its link.
		ds.files.remove(ctx, f.ID)
		return fmt.Errorf("store pdf link: %w", err)
	}
	d.PDFURL = &link
	d.PDFFileID = f.ID
	return nil
}

// Delete removes the record with its children, then the cloud file.
func (ds *declarationService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	var fileID string
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := ds.declarationRepo.GetByID(inner, userID, id)
		if err != nil {
			return err
		}
		fileID = existing.PDFFileID
		if fileID == "" && existing.PDFURL != nil {
			fileID = cloudstore.FileIDFromURL(*existing.PDFURL)
		}
		return ds.declarationRepo.Delete(inner, userID, id)
	})
	if err != nil {
		return notFound(err, "declaration")
	}
	ds.log.Info("Declaration deleted", "user_id", userID, "declaration_id", id)
	ds.files.remove(ctx, fileID)
	return nil
}

func (ds *declarationService) Get(ctx context.Context, id uuid.UUID) (*types.Declaration, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := ds.declarationRepo.GetByID(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, notFound(err, "declaration")
	}
	return d, nil
}

func (ds *declarationService) List(ctx context.Context, limit, offset int) ([]*types.Declaration, int64, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	list, total, err := ds.declarationRepo.List(dbctx.Context{Ctx: ctx}, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list declarations: %w", err)
	}
	return list, total, nil
}

// RegeneratePDF republishes the PDF on demand. Unlike the save paths a
// publishing failure is the result here.
func (ds *declarationService) RegeneratePDF(ctx context.Context, id uuid.UUID) (*types.Declaration, error) {
	d, err := ds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := d.PDFFileID
	if err := ds.publish(ctx, d.UserID, d); err != nil {
		ds.log.Warn("Declaration PDF regeneration failed", "declaration_id", d.ID, "error", err)
		return nil, apierr.New(http.StatusBadGateway, "pdf_publish_failed", errors.New(publishWarning(err)))
	}
	if previous != "" && previous != d.PDFFileID {
		ds.files.remove(ctx, previous)
	}
	return d, nil
}

func (ds *declarationService) Preview(ctx context.Context, id uuid.UUID, w io.Writer) error {
	d, err := ds.Get(ctx, id)
	if err != nil {
		return err
	}
	profile, err := ds.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, d.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load profile: %w", err)
	}
	return ds.publisher.renderer.RenderHTML(w, ds.publisher.view(d, profile))
}

// prepare drops blank and deleted rows, fills material rows from their
// presets, validates, and resolves the manufacture date.
func (ds *declarationService) prepare(ctx context.Context, userID uuid.UUID, in DeclarationInput) (*form, error) {
	in.JobNumber = strings.TrimSpace(in.JobNumber)
	in.PatientName = strings.TrimSpace(in.PatientName)

	work := make([]WorkItemInput, 0, len(in.WorkItems))
	for _, w := range in.WorkItems {
		if w.Delete || w.blank() {
			continue
		}
		w.Description = strings.TrimSpace(w.Description)
		w.ToothNumber = strings.TrimSpace(w.ToothNumber)
		w.ToothShade = strings.TrimSpace(w.ToothShade)
		work = append(work, w)
	}
	materials := make([]MaterialItemInput, 0, len(in.MaterialItems))
	for _, m := range in.MaterialItems {
		if m.Delete || m.blank() {
			continue
		}
		materials = append(materials, trimMaterial(m))
	}
	in.WorkItems = work
	in.MaterialItems = materials

	if err := ds.applyPresets(ctx, userID, in.MaterialItems); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	return &form{
		jobNumber:       in.JobNumber,
		patientName:     in.PatientName,
		manufactureDate: ds.parseDate(in.ManufactureDate),
		snapshot:        in.ExtractionSnapshot,
		work:            in.WorkItems,
		materials:       in.MaterialItems,
	}, nil
}

func trimMaterial(m MaterialItemInput) MaterialItemInput {
	m.Material = strings.TrimSpace(m.Material)
	m.Manufacturer = strings.TrimSpace(m.Manufacturer)
	m.Composition = strings.TrimSpace(m.Composition)
	m.LotNumber = strings.TrimSpace(m.LotNumber)
	m.CEStatus = strings.TrimSpace(m.CEStatus)
	m.DeviceIdentification = strings.TrimSpace(m.DeviceIdentification)
	return m
}

// applyPresets fills blank material fields from the referenced preset. A
// preset id the user does not own is a field error.
func (ds *declarationService) applyPresets(ctx context.Context, userID uuid.UUID, rows []MaterialItemInput) error {
	var ids []uuid.UUID
	for _, m := range rows {
		if m.PresetID != nil {
			ids = append(ids, *m.PresetID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	presets, err := ds.presetRepo.GetByIDs(dbctx.Context{Ctx: ctx}, userID, ids)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	byID := make(map[uuid.UUID]*types.MaterialPreset, len(presets))
	for _, p := range presets {
		byID[p.ID] = p
	}

	fields := map[string]string{}
	for i := range rows {
		if rows[i].PresetID == nil {
			continue
		}
		p, ok := byID[*rows[i].PresetID]
		if !ok {
			fields[fmt.Sprintf("material_items[%d].preset_id", i)] = "Unbekannte Materialvorlage."
			continue
		}
		fillBlank(&rows[i].Material, p.Material)
		fillBlank(&rows[i].Manufacturer, p.Manufacturer)
		fillBlank(&rows[i].Composition, p.Composition)
		fillBlank(&rows[i].LotNumber, p.LotNumber)
		fillBlank(&rows[i].CEStatus, p.CEStatus)
		fillBlank(&rows[i].DeviceIdentification, p.DeviceIdentification)
	}
	if len(fields) > 0 {
		return apierr.Validation(fields)
	}
	return nil
}

func fillBlank(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func (ds *declarationService) parseDate(raw string) time.Time {
	if t, err := time.ParseInLocation(inputDateLayout, strings.TrimSpace(raw), ds.loc); err == nil {
		return dateOnly(t)
	}
	return dateOnly(ds.now().In(ds.loc))
}

// items numbers both child sets from 1 in submission order.
func (f *form) items(declarationID uuid.UUID) ([]types.WorkItem, []types.MaterialItem) {
	work := make([]types.WorkItem, 0, len(f.work))
	for i, w := range f.work {
		work = append(work, types.WorkItem{
			DeclarationID: declarationID,
			LineNumber:    i + 1,
			Description:   w.Description,
			ToothNumber:   w.ToothNumber,
			ToothShade:    w.ToothShade,
		})
	}
	materials := make([]types.MaterialItem, 0, len(f.materials))
	for i, m := range f.materials {
		materials = append(materials, types.MaterialItem{
			DeclarationID:        declarationID,
			LineNumber:           i + 1,
			PresetID:             m.PresetID,
			Material:             m.Material,
			Manufacturer:         m.Manufacturer,
			Composition:          m.Composition,
			LotNumber:            m.LotNumber,
			CEStatus:             m.CEStatus,
			DeviceIdentification: m.DeviceIdentification,
		})
	}
	return work, materials
}
