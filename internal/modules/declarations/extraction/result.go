package extraction

// CEConfirmed is the CE-status value for a marked material.
const CEConfirmed = "Ja"

type WorkItem struct {
	Description string `json:"description"`
	ToothNumber string `json:"tooth_number"`
	ToothShade  string `json:"tooth_shade"`
}

type Material struct {
	Material     string `json:"material"`
	Manufacturer string `json:"manufacturer"`
	Composition  string `json:"composition"`
	LotNumber    string `json:"lot_number"`
	CEStatus     string `json:"ce_status"`
}

// Result holds whatever could be recovered. Fields without a matching layout
// stay empty; that is the normal case.
type Result struct {
	JobNumber       string     `json:"job_number"`
	PatientName     string     `json:"patient_name"`
	ManufactureDate string     `json:"manufacture_date"`
	WorkItems       []WorkItem `json:"work_items"`
	Materials       []Material `json:"materials"`

	// Sources names the strategy that produced each populated field.
	Sources map[string]string `json:"-"`
}
