package document

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed assets/content.yaml
var contentYAML []byte

// Content is the fixed wording printed on every declaration.
type Content struct {
	Title           string   `yaml:"title"`
	Subtitle        string   `yaml:"subtitle"`
	Labels          Labels   `yaml:"labels"`
	WorkColumns     []string `yaml:"work_columns"`
	MaterialColumns []string `yaml:"material_columns"`
	Statements      []string `yaml:"statements"`
	Footer          string   `yaml:"footer"`
}

type Labels struct {
	Number          string `yaml:"number"`
	JobNumber       string `yaml:"job_number"`
	Patient         string `yaml:"patient"`
	ManufactureDate string `yaml:"manufacture_date"`
	Manufacturer    string `yaml:"manufacturer"`
	Dentist         string `yaml:"dentist"`
	Phone           string `yaml:"phone"`
	Email           string `yaml:"email"`
	WorkItems       string `yaml:"work_items"`
	Materials       string `yaml:"materials"`
	PlaceDate       string `yaml:"place_date"`
	Signature       string `yaml:"signature"`
}

func LoadContent() (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(contentYAML, &c); err != nil {
		return nil, fmt.Errorf("parse declaration content: %w", err)
	}
	if len(c.WorkColumns) != 4 || len(c.MaterialColumns) != 6 {
		return nil, fmt.Errorf("declaration content: unexpected column count")
	}
	return &c, nil
}
