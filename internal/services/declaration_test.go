package services

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	"github.com/yungbote/zahnovia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/pdftext"
)

var march2026 = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func TestCreateNumbersPerUserAndYear(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	alice := seedVerified(t, f.db, "alice@example.com")
	bob := seedVerified(t, f.db, "bob@example.com")

	var numbers []string
	for i := 0; i < 2; i++ {
		res, err := f.svc.Create(asUser(alice.ID), validInput())
		require.NoError(t, err)
		require.Empty(t, res.Warnings)
		numbers = append(numbers, res.Declaration.Number)
	}
	require.Equal(t, []string{"DECL-2026-0001", "DECL-2026-0002"}, numbers)

	res, err := f.svc.Create(asUser(bob.ID), validInput())
	require.NoError(t, err)
	require.Equal(t, "DECL-2026-0001", res.Declaration.Number)
}

func TestCreateUsesCalendarYearOfConfiguredZone(t *testing.T) {
	// 23:30 UTC on New Year's Eve is already 2027 in Berlin.
	f := newDeclarationFixture(t, time.Date(2026, time.December, 31, 23, 30, 0, 0, time.UTC), nil)
	u := seedVerified(t, f.db, "nye@example.com")

	res, err := f.svc.Create(asUser(u.ID), validInput())
	require.NoError(t, err)
	require.Equal(t, "DECL-2027-0001", res.Declaration.Number)
}

func TestCreateStoresChildrenAndPublishesPDF(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "lab@example.com")

	res, err := f.svc.Create(asUser(u.ID), validInput())
	require.NoError(t, err)
	d := res.Declaration

	require.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), d.ManufactureDate.UTC())
	require.Len(t, d.WorkItems, 2)
	require.Equal(t, 1, d.WorkItems[0].LineNumber)
	require.Equal(t, 2, d.WorkItems[1].LineNumber)
	require.Equal(t, "Brückenglied", d.WorkItems[1].Description)
	require.Len(t, d.MaterialItems, 1)
	require.Equal(t, 1, d.MaterialItems[0].LineNumber)

	require.True(t, d.HasPDF())
	require.NotEmpty(t, d.PDFFileID)
	require.True(t, f.store.public[d.PDFFileID])

	folder := f.store.folder(f.store.folder(testRootFolder, declarationsFolder), u.ID.String())
	require.NotEmpty(t, folder)
	require.Equal(t, folder+"/DECL-2026-0001.pdf", f.store.names[d.PDFFileID])

	pages, err := pdftext.Validate(f.store.files[d.PDFFileID])
	require.NoError(t, err)
	require.GreaterOrEqual(t, pages, 1)

	stored, err := f.repo.GetByID(dbctx.Context{Ctx: context.Background()}, u.ID, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.PDFFileID, stored.PDFFileID)
}

func TestCreateDropsBlankAndDeletedRows(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "rows@example.com")

	in := validInput()
	in.WorkItems = []WorkItemInput{
		{Description: "  "},
		{Description: "Verworfen", Delete: true},
		{Description: "Inlay", ToothNumber: "36"},
	}
	in.MaterialItems = append([]MaterialItemInput{{}}, in.MaterialItems...)

	res, err := f.svc.Create(asUser(u.ID), in)
	require.NoError(t, err)
	require.Len(t, res.Declaration.WorkItems, 1)
	require.Equal(t, "Inlay", res.Declaration.WorkItems[0].Description)
	require.Equal(t, 1, res.Declaration.WorkItems[0].LineNumber)
	require.Len(t, res.Declaration.MaterialItems, 1)
}

func TestCreateFillsMaterialFromPreset(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "preset@example.com")
	preset := testutil.SeedPreset(t, context.Background(), f.db, u.ID, "Zirkon", "Amann Girrbach")

	in := validInput()
	in.MaterialItems = []MaterialItemInput{{PresetID: &preset.ID, LotNumber: "999111"}}

	res, err := f.svc.Create(asUser(u.ID), in)
	require.NoError(t, err)
	m := res.Declaration.MaterialItems[0]
	require.Equal(t, "Zirkon", m.Material)
	require.Equal(t, "Amann Girrbach", m.Manufacturer)
	require.Equal(t, "ZrO2", m.Composition)
	require.Equal(t, "999111", m.LotNumber)
	require.Equal(t, "Ja", m.CEStatus)
	require.NotNil(t, m.PresetID)
	require.Equal(t, preset.ID, *m.PresetID)
}

func TestCreateRejectsForeignPreset(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "own@example.com")
	other := seedVerified(t, f.db, "other@example.com")
	preset := testutil.SeedPreset(t, context.Background(), f.db, other.ID, "Zirkon", "Amann Girrbach")

	in := validInput()
	in.MaterialItems = []MaterialItemInput{{PresetID: &preset.ID}}

	_, err := f.svc.Create(asUser(u.ID), in)
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	require.Contains(t, ae.Fields, "material_items[0].preset_id")
	require.Zero(t, countRows(t, f.db, &types.Declaration{}))
}

func TestCreateValidationFailureWritesNothing(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "invalid@example.com")

	in := validInput()
	in.MaterialItems[0].LotNumber = ""
	in.MaterialItems[0].CEStatus = "Vielleicht"

	_, err := f.svc.Create(asUser(u.ID), in)
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	require.Equal(t, "Dieses Feld ist erforderlich.", ae.Fields["material_items[0].lot_number"])
	require.Contains(t, ae.Fields, "material_items[0].ce_status")

	require.Zero(t, countRows(t, f.db, &types.Declaration{}))
	require.Zero(t, countRows(t, f.db, &types.WorkItem{}))
	require.Zero(t, countRows(t, f.db, &types.MaterialItem{}))
	require.Empty(t, f.store.files)
}

func TestCreateRejectsMoreThanTwentyRows(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "many@example.com")

	in := validInput()
	in.WorkItems = nil
	for i := 0; i < 21; i++ {
		in.WorkItems = append(in.WorkItems, WorkItemInput{Description: "Krone"})
	}
	_, err := f.svc.Create(asUser(u.ID), in)
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	require.Equal(t, "Höchstens 20 Einträge erlaubt.", ae.Fields["work_items"])
	require.Zero(t, countRows(t, f.db, &types.Declaration{}))
}

type failingItemsRepo struct {
	repos.DeclarationRepo
}

func (failingItemsRepo) CreateItems(dbctx.Context, []types.WorkItem, []types.MaterialItem) error {
	return errBoom
}

func TestCreateRollsBackWhenChildInsertFails(t *testing.T) {
	f := newDeclarationFixture(t, march2026, func(r repos.DeclarationRepo) repos.DeclarationRepo {
		return failingItemsRepo{r}
	})
	u := seedVerified(t, f.db, "rollback@example.com")

	_, err := f.svc.Create(asUser(u.ID), validInput())
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, countRows(t, f.db, &types.Declaration{}))
	require.Zero(t, countRows(t, f.db, &types.WorkItem{}))
}

type collidingRepo struct {
	repos.DeclarationRepo
	collisions int
}

func (r *collidingRepo) LatestNumber(dbc dbctx.Context, userID uuid.UUID, prefix string) (string, error) {
	if r.collisions > 0 {
		r.collisions--
		// Pretend the newest row is missing so Next hands out a taken number.
		return "", nil
	}
	return r.DeclarationRepo.LatestNumber(dbc, userID, prefix)
}

func TestCreateRetriesOnNumberCollision(t *testing.T) {
	cr := &collidingRepo{}
	f := newDeclarationFixture(t, march2026, func(r repos.DeclarationRepo) repos.DeclarationRepo {
		cr.DeclarationRepo = r
		return cr
	})
	u := seedVerified(t, f.db, "race@example.com")
	ctx := asUser(u.ID)

	_, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	cr.collisions = 1
	res, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "DECL-2026-0002", res.Declaration.Number)

	cr.collisions = numberAttempts
	_, err = f.svc.Create(ctx, validInput())
	requireAPIError(t, err, http.StatusConflict, "number_conflict")
	require.Equal(t, int64(2), countRows(t, f.db, &types.Declaration{}))
}

func TestCreateUploadFailureIsAWarning(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	f.store.uploadErr = errBoom
	u := seedVerified(t, f.db, "offline@example.com")

	res, err := f.svc.Create(asUser(u.ID), validInput())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.False(t, res.Declaration.HasPDF())
	require.Equal(t, int64(1), countRows(t, f.db, &types.Declaration{}))
}

func TestCreateWithoutStoreWarns(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewDeclarationService(db, log, repos.NewDeclarationRepo(db, log), repos.NewMaterialPresetRepo(db, log),
		repos.NewProfileRepo(db, log), newRenderer(t), nil, DeclarationConfig{}, fixedClock(march2026))
	u := seedVerified(t, db, "nostore@example.com")

	res, err := svc.Create(asUser(u.ID), validInput())
	require.NoError(t, err)
	require.Equal(t, []string{"Cloud-Speicher ist nicht eingerichtet. Das PDF wurde nicht hochgeladen."}, res.Warnings)
}

func TestCreateFallsBackToToday(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "date@example.com")

	in := validInput()
	in.ManufactureDate = "31.02.2026"
	res, err := f.svc.Create(asUser(u.ID), in)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), res.Declaration.ManufactureDate.UTC())
}

func TestUpdateKeepsNumberAndReplacesFile(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "update@example.com")
	ctx := asUser(u.ID)

	created, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	oldFile := created.Declaration.PDFFileID

	in := validInput()
	in.PatientName = "Musterfrau, Erika"
	in.WorkItems = []WorkItemInput{{Description: "Veneer", ToothNumber: "21"}}
	updated, err := f.svc.Update(ctx, created.Declaration.ID, in)
	require.NoError(t, err)

	d := updated.Declaration
	require.Equal(t, created.Declaration.Number, d.Number)
	require.Equal(t, "Musterfrau, Erika", d.PatientName)
	require.Len(t, d.WorkItems, 1)
	require.Equal(t, 1, d.WorkItems[0].LineNumber)
	require.Equal(t, int64(1), countRows(t, f.db, &types.WorkItem{}))

	require.NotEqual(t, oldFile, d.PDFFileID)
	require.Contains(t, f.store.deleted, oldFile)
}

func TestDeleteRemovesChildrenAndFile(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "delete@example.com")
	ctx := asUser(u.ID)

	res, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, res.Declaration.ID))
	require.Zero(t, countRows(t, f.db, &types.Declaration{}))
	require.Zero(t, countRows(t, f.db, &types.WorkItem{}))
	require.Zero(t, countRows(t, f.db, &types.MaterialItem{}))
	require.Contains(t, f.store.deleted, res.Declaration.PDFFileID)

	err = f.svc.Delete(ctx, res.Declaration.ID)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
}

func TestOwnershipIsEnforced(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	owner := seedVerified(t, f.db, "owner@example.com")
	intruder := seedVerified(t, f.db, "intruder@example.com")

	res, err := f.svc.Create(asUser(owner.ID), validInput())
	require.NoError(t, err)
	id := res.Declaration.ID

	ctx := asUser(intruder.ID)
	_, err = f.svc.Get(ctx, id)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
	_, err = f.svc.Update(ctx, id, validInput())
	requireAPIError(t, err, http.StatusNotFound, "not_found")
	err = f.svc.Delete(ctx, id)
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	list, total, err := f.svc.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)
}

func TestCreateRequiresUser(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	_, err := f.svc.Create(context.Background(), validInput())
	requireAPIError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestRegeneratePDFBackfillsLink(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	f.store.uploadErr = errBoom
	u := seedVerified(t, f.db, "backfill@example.com")
	ctx := asUser(u.ID)

	res, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.False(t, res.Declaration.HasPDF())

	_, err = f.svc.RegeneratePDF(ctx, res.Declaration.ID)
	requireAPIError(t, err, http.StatusBadGateway, "pdf_publish_failed")

	f.store.uploadErr = nil
	d, err := f.svc.RegeneratePDF(ctx, res.Declaration.ID)
	require.NoError(t, err)
	require.True(t, d.HasPDF())
}

func TestPreviewRendersHTML(t *testing.T) {
	f := newDeclarationFixture(t, march2026, nil)
	u := seedVerified(t, f.db, "preview@example.com")
	ctx := asUser(u.ID)

	res, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Preview(ctx, res.Declaration.ID, &buf))
	html := buf.String()
	require.Contains(t, html, "DECL-2026-0001")
	require.Contains(t, html, "Dentallabor Muster GmbH")
	require.Contains(t, html, "data:image/png;base64,")
}
