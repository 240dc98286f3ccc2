package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const namePart = `[A-ZÄÖÜ][A-Za-zÄÖÜäöüß'-]+`

var (
	jobNumberRe = regexp.MustCompile(`Auftragsnummer\s*[:.]?\s*([A-Za-z0-9][A-Za-z0-9-]*)`)

	// "Mustermann,Max Zahnarzt,Erika 12345 ...": patient pair, then the
	// dentist pair, then the rest of the row.
	patientTableRe = regexp.MustCompile(`(` + namePart + `),(` + namePart + `)[ \t]+` + namePart + `,` + namePart + `[ \t]+\S+`)
	// The value may not start with the label colon, so a bare "Patient:" is no match.
	patientLabelRe = regexp.MustCompile(`(?m)\b(?:Patientenname|Patient)\b[ \t]*:?[ \t]*([^:\s][^\r\n]*\S|[^:\s])`)

	creationDateRe    = regexp.MustCompile(`Erstellungsdatum\s*:?\s*(\d{1,2})[./-](\d{1,2})[./-](\d{4})`)
	manufactureDateRe = regexp.MustCompile(`Herstellungsdatum\s*:?\s*(\d{1,2})[./-](\d{1,2})[./-](\d{4})`)

	workTableRe = regexp.MustCompile(`(?m)^[ \t]*([^|\r\n]*?[A-Za-zÄÖÜäöüß][^|\r\n]*?)[ \t]*\|[ \t]*(\d{1,2}(?:[ \t]*[,/;-][ \t]*\d{1,2})*)[ \t]*\|[ \t]*([^|\r\n]*?)[ \t]*$`)
	// Tab or wide-space separated "description  teeth" export row.
	workVendorRowRe = regexp.MustCompile(`(?m)^[ \t]*([A-Za-zÄÖÜäöüß][^\t\r\n|]*?)(?:\t+|[ ]{2,})[ \t]*(\d{2}(?:[ \t]*[,;][ \t]*\d{2})*)[ \t]*$`)

	lotTokenRe          = regexp.MustCompile(`\b\d{8}-(\d{6})\b`)
	lotLabelRe          = regexp.MustCompile(`(?i)\blot\b\s*[:.#]?\s*([A-Za-z0-9][A-Za-z0-9-]*)`)
	materialLabelRe     = regexp.MustCompile(`Materialname\s*:?\s*([A-Za-zÄÖÜäöüß0-9][A-Za-zÄÖÜäöüß0-9®+-]*)`)
	manufacturerLabelRe = regexp.MustCompile(`Hersteller\s*:?\s*([A-Za-zÄÖÜäöüß0-9][A-Za-zÄÖÜäöüß0-9&.+-]*)`)
	zirconiaRe          = regexp.MustCompile(`(?i)zirkon|zirconia`)
	fieldGapRe          = regexp.MustCompile(`\s{2,}|\t`)
)

// Clean removes zero-width spaces and byte-order marks left by PDF text
// layers.
func Clean(text string) string {
	return strings.NewReplacer("\u200b", "", "\ufeff", "").Replace(text)
}

func jobNumberStrategies() []Strategy[string] {
	return []Strategy[string]{
		Capture{Label: "auftragsnummer_label", Pattern: jobNumberRe},
	}
}

func patientStrategies() []Strategy[string] {
	return []Strategy[string]{
		Capture{
			Label:   "patient_table_row",
			Pattern: patientTableRe,
			Normalize: func(m []string) (string, bool) {
				return m[1] + ", " + m[2], true
			},
		},
		Capture{Label: "patient_label", Pattern: patientLabelRe},
	}
}

func dateStrategies() []Strategy[string] {
	return []Strategy[string]{
		Capture{Label: "erstellungsdatum_label", Pattern: creationDateRe, Normalize: isoDate},
		Capture{Label: "herstellungsdatum_label", Pattern: manufactureDateRe, Normalize: isoDate},
	}
}

// isoDate turns the day, month, year submatches into YYYY-MM-DD.
func isoDate(m []string) (string, bool) {
	if len(m) < 4 {
		return "", false
	}
	day, errD := strconv.Atoi(m[1])
	month, errM := strconv.Atoi(m[2])
	if errD != nil || errM != nil || day < 1 || day > 31 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", m[3], month, day), true
}

func workItemStrategies() []Strategy[[]WorkItem] {
	return []Strategy[[]WorkItem]{
		StrategyFunc("pipe_table", func(text string) ([]WorkItem, bool) {
			rows := workTableRe.FindAllStringSubmatch(text, -1)
			if len(rows) == 0 {
				return nil, false
			}
			items := make([]WorkItem, 0, len(rows))
			for _, r := range rows {
				items = append(items, WorkItem{
					Description: strings.TrimSpace(r[1]),
					ToothNumber: strings.TrimSpace(r[2]),
					ToothShade:  strings.TrimSpace(r[3]),
				})
			}
			return items, true
		}),
		StrategyFunc("vendor_row", func(text string) ([]WorkItem, bool) {
			m := workVendorRowRe.FindStringSubmatch(text)
			if m == nil {
				return nil, false
			}
			return []WorkItem{{
				Description: strings.TrimSpace(m[1]),
				ToothNumber: strings.TrimSpace(m[2]),
			}}, true
		}),
	}
}

func materialStrategies() []Strategy[[]Material] {
	return []Strategy[[]Material]{
		StrategyFunc("material_labels", labeledMaterial),
		StrategyFunc("line_scan", scanMaterialLines),
	}
}

func labeledMaterial(text string) ([]Material, bool) {
	m := materialLabelRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	mat := Material{
		Material: SplitCompound(m[1]),
		CEStatus: CEConfirmed,
	}
	if lot := lotTokenRe.FindStringSubmatch(text); lot != nil {
		mat.LotNumber = lot[1]
	}
	if h := manufacturerLabelRe.FindStringSubmatch(text); h != nil {
		mat.Manufacturer = SplitCompound(h[1])
	}
	return []Material{mat}, true
}

func scanMaterialLines(text string) ([]Material, bool) {
	var out []Material
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, "CE") && !strings.Contains(line, "Lot") && !zirconiaRe.MatchString(line) {
			continue
		}
		fields := splitFields(line)
		if len(fields) == 0 {
			continue
		}
		mat := Material{Material: fields[0]}
		for _, f := range fields[1:] {
			if lot := findLot(f); lot != "" {
				if mat.LotNumber == "" {
					mat.LotNumber = lot
				}
				continue
			}
			if mat.Manufacturer == "" {
				mat.Manufacturer = f
			}
		}
		if strings.Contains(line, "CE") {
			mat.CEStatus = CEConfirmed
		}
		out = append(out, mat)
	}
	return out, len(out) > 0
}

func splitFields(line string) []string {
	parts := fieldGapRe.Split(line, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// findLot prefers the dated "YYYYMMDD-NNNNNN" token, keeping the six
// trailing digits, and falls back to a "Lot ..." label.
func findLot(s string) string {
	if m := lotTokenRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := lotLabelRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
