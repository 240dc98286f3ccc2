package extraction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const labeledExport = "Auftragsnummer: A-2026-0042\n" +
	"Patient: Max Mustermann\n" +
	"Erstellungsdatum: 01.02.2026\n" +
	"Vollkeramikkrone | 11, 21 | A2\n" +
	"Brücke Zirkon | 14-16 | A3\n" +
	"Materialname: CERECMTLZirconia\n" +
	"Hersteller: DentsplySirona\n" +
	"Charge 20260101-222705\n"

func TestExtractLabeledExport(t *testing.T) {
	res, err := New().Extract(labeledExport)
	require.NoError(t, err)

	require.Equal(t, "A-2026-0042", res.JobNumber)
	require.Equal(t, "Max Mustermann", res.PatientName)
	require.Equal(t, "2026-02-01", res.ManufactureDate)
	require.Equal(t, []WorkItem{
		{Description: "Vollkeramikkrone", ToothNumber: "11, 21", ToothShade: "A2"},
		{Description: "Brücke Zirkon", ToothNumber: "14-16", ToothShade: "A3"},
	}, res.WorkItems)

	require.Len(t, res.Materials, 1)
	mat := res.Materials[0]
	require.Equal(t, "CEREC MTL Zirconia", mat.Material)
	require.Equal(t, "Dentsply Sirona", mat.Manufacturer)
	require.Equal(t, "222705", mat.LotNumber)
	require.Equal(t, CEConfirmed, mat.CEStatus)

	require.Equal(t, "material_labels", res.Sources["materials"])
	require.Equal(t, "pipe_table", res.Sources["work_items"])
}

func TestExtractStripsInvisibleCharacters(t *testing.T) {
	res, err := New().Extract("\ufeffAuftrags\u200bnummer: 991\n")
	require.NoError(t, err)
	require.Equal(t, "991", res.JobNumber)
}

func TestExtractPatientTableRowWins(t *testing.T) {
	text := "Patient: ignored label\nMustermann,Max Zahnarzt,Erika 12345 Berlin\n"
	res, err := New().Extract(text)
	require.NoError(t, err)
	require.Equal(t, "Mustermann, Max", res.PatientName)
	require.Equal(t, "patient_table_row", res.Sources["patient_name"])
}

func TestExtractPatientenname(t *testing.T) {
	res, err := New().Extract("Patientenname:   Erika Musterfrau  \n")
	require.NoError(t, err)
	require.Equal(t, "Erika Musterfrau", res.PatientName)
}

func TestExtractDateFallsBackToHerstellungsdatum(t *testing.T) {
	res, err := New().Extract("Herstellungsdatum 3/7/2025")
	require.NoError(t, err)
	require.Equal(t, "2025-07-03", res.ManufactureDate)
	require.Equal(t, "herstellungsdatum_label", res.Sources["manufacture_date"])
}

func TestExtractDateRejectsImpossibleValues(t *testing.T) {
	res, err := New().Extract("Erstellungsdatum: 41.13.2026")
	require.NoError(t, err)
	require.Empty(t, res.ManufactureDate)
}

func TestExtractVendorRowWhenNoPipeTable(t *testing.T) {
	res, err := New().Extract("Zirkonkrone monolithisch\t36\n")
	require.NoError(t, err)
	require.Equal(t, []WorkItem{{Description: "Zirkonkrone monolithisch", ToothNumber: "36"}}, res.WorkItems)
}

func TestExtractMaterialLineScan(t *testing.T) {
	text := "Auftragsnummer: 77\n" +
		"IPS e.max CAD  Ivoclar Vivadent  Lot 12345AB  CE 0123\n" +
		"Zirkonoxid Blank    Amann Girrbach    20250505-123456\n"
	res, err := New().Extract(text)
	require.NoError(t, err)
	require.Equal(t, "line_scan", res.Sources["materials"])
	require.Equal(t, []Material{
		{Material: "IPS e.max CAD", Manufacturer: "Ivoclar Vivadent", LotNumber: "12345AB", CEStatus: CEConfirmed},
		{Material: "Zirkonoxid Blank", Manufacturer: "Amann Girrbach", LotNumber: "123456"},
	}, res.Materials)
}

func TestExtractNoPatternsIsNotAnError(t *testing.T) {
	res, err := New().Extract("Lorem ipsum dolor sit amet")
	require.NoError(t, err)
	require.Empty(t, res.JobNumber)
	require.Empty(t, res.PatientName)
	require.Empty(t, res.ManufactureDate)
	require.NotNil(t, res.WorkItems)
	require.Empty(t, res.WorkItems)
	require.NotNil(t, res.Materials)
	require.Empty(t, res.Materials)
}

func TestExtractRecoversFromStrategyPanic(t *testing.T) {
	e := New()
	e.Materials = e.Materials.Append(StrategyFunc("broken", func(string) ([]Material, bool) {
		panic("boom")
	}))
	res, err := e.Extract("Auftragsnummer: 5")
	require.ErrorIs(t, err, ErrExtraction)
	require.Empty(t, res.JobNumber)
}

func TestFieldAppendKeepsPriority(t *testing.T) {
	f := Field[string]{Name: "x", Strategies: []Strategy[string]{
		StrategyFunc("first", func(string) (string, bool) { return "", false }),
	}}
	f = f.Append(
		StrategyFunc("second", func(string) (string, bool) { return "two", true }),
		StrategyFunc("third", func(string) (string, bool) { return "three", true }),
	)
	v, src, ok := f.Extract("")
	require.True(t, ok)
	require.Equal(t, "two", v)
	require.Equal(t, "second", src)
}

func TestSplitCompound(t *testing.T) {
	cases := map[string]string{
		"CERECMTLZirconia": "CEREC MTL Zirconia",
		"DentsplySirona":   "Dentsply Sirona",
		"IvoclarVivadent":  "Ivoclar Vivadent",
		"VITAL":            "VITAL",
		"Zirkon":           "Zirkon",
	}
	for in, want := range cases {
		require.Equal(t, want, SplitCompound(in), in)
	}
}

func TestExtractEmptyPatientLabelStaysBlank(t *testing.T) {
	for _, text := range []string{
		"Auftragsnummer: A-1\nPatient:\nHerstellungsdatum: 01.02.2026\n",
		"Auftragsnummer: A-1\nPatientenname:   \nHerstellungsdatum: 01.02.2026\n",
	} {
		res, err := New().Extract(text)
		require.NoError(t, err)
		require.Empty(t, res.PatientName, text)
		require.NotContains(t, res.Sources, "patient_name")
		require.Equal(t, "A-1", res.JobNumber)
		require.Equal(t, "2026-02-01", res.ManufactureDate)
	}

	res, err := New().Extract("Patient: K\n")
	require.NoError(t, err)
	require.Equal(t, "K", res.PatientName)
}
