package document

import (
	"strconv"
	"strings"
	"time"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
)

const dateLayout = "02.01.2006"

// View is the render model shared by the PDF and the HTML preview.
type View struct {
	Number          string
	JobNumber       string
	PatientName     string
	ManufactureDate string
	IssuedOn        string

	Company     string
	AddressLine string
	City        string
	Phone       string
	Email       string
	Dentist     string
	Initials    string

	WorkRows     [][]string
	MaterialRows [][]string
}

func NewView(d *types.Declaration, p *types.ManufacturerProfile, now time.Time) View {
	v := View{
		Number:          d.Number,
		JobNumber:       d.JobNumber,
		PatientName:     d.PatientName,
		ManufactureDate: d.ManufactureDate.Format(dateLayout),
		IssuedOn:        now.Format(dateLayout),
	}
	if p != nil {
		v.Company = strings.TrimSpace(p.CompanyName)
		v.AddressLine = p.AddressLine()
		v.City = strings.TrimSpace(p.City)
		v.Phone = strings.TrimSpace(p.Phone)
		v.Email = strings.TrimSpace(p.Email)
		v.Dentist = strings.TrimSpace(p.PrescribingDentist)
	}
	v.Initials = Initials(v.Company)

	for _, w := range d.WorkItems {
		v.WorkRows = append(v.WorkRows, []string{
			strconv.Itoa(w.LineNumber), w.Description, w.ToothNumber, w.ToothShade,
		})
	}
	for _, m := range d.MaterialItems {
		v.MaterialRows = append(v.MaterialRows, []string{
			strconv.Itoa(m.LineNumber), m.Material, m.Manufacturer, m.Composition, m.LotNumber, m.CEStatus,
		})
	}
	return v
}

// Initials takes the first letter of up to two words, skipping legal-form
// suffixes such as "GmbH".
func Initials(company string) string {
	skip := map[string]bool{"gmbh": true, "ag": true, "kg": true, "ug": true, "ohg": true, "gbr": true, "e.k.": true, "&": true, "co.": true}
	var out []rune
	for _, w := range strings.Fields(company) {
		if skip[strings.ToLower(w)] {
			continue
		}
		r := []rune(w)
		out = append(out, []rune(strings.ToUpper(string(r[0])))...)
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "Z"
	}
	return string(out)
}
