package declarations

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/zahnovia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
)

func TestMaterialPresetRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMaterialPresetRepo(db, testutil.Logger(t))
	decls := NewDeclarationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "presets@example.com")
	p := testutil.SeedPreset(t, ctx, tx, u.ID, "Zirkon", "Amann Girrbach")
	if p.Name != "Zirkon - Amann Girrbach" {
		t.Fatalf("default name: %q", p.Name)
	}

	if err := repo.SetActive(dbc, u.ID, p.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if rows, err := repo.List(dbc, u.ID, true); err != nil || len(rows) != 0 {
		t.Fatalf("List active: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.List(dbc, u.ID, false); err != nil || len(rows) != 1 {
		t.Fatalf("List all: err=%v len=%d", err, len(rows))
	}

	d := &types.Declaration{UserID: u.ID, Number: "DECL-2026-0001", ManufactureDate: time.Now()}
	if err := decls.Create(dbc, d); err != nil {
		t.Fatalf("seed declaration: %v", err)
	}
	item := types.MaterialItem{DeclarationID: d.ID, LineNumber: 1, PresetID: testutil.PtrUUID(p.ID), Material: "Zirkon", CEStatus: "Ja"}
	if err := decls.CreateItems(dbc, nil, []types.MaterialItem{item}); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	other := testutil.SeedUser(t, ctx, tx, "presets-other@example.com")
	if err := repo.Delete(dbc, other.ID, p.ID); err == nil {
		t.Fatalf("foreign owner must not delete preset")
	}
	if err := repo.Delete(dbc, u.ID, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var left types.MaterialItem
	if err := tx.Where("declaration_id = ?", d.ID).First(&left).Error; err != nil {
		t.Fatalf("material item should survive preset delete: %v", err)
	}
	if left.PresetID != nil {
		t.Fatalf("preset reference not cleared")
	}
}
