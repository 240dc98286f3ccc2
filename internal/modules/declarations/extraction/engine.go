package extraction

import (
	"errors"
	"fmt"
)

// ErrExtraction is returned when extraction aborts. No partial result is
// returned alongside it.
var ErrExtraction = errors.New("reference PDF could not be processed")

// Engine runs one ordered strategy list per field. Fields are independent:
// a miss in one leaves it blank and does not affect the others.
type Engine struct {
	JobNumber       Field[string]
	PatientName     Field[string]
	ManufactureDate Field[string]
	WorkItems       Field[[]WorkItem]
	Materials       Field[[]Material]
}

// New returns an engine with the known vendor layouts in priority order.
func New() *Engine {
	return &Engine{
		JobNumber:       Field[string]{Name: "job_number", Strategies: jobNumberStrategies()},
		PatientName:     Field[string]{Name: "patient_name", Strategies: patientStrategies()},
		ManufactureDate: Field[string]{Name: "manufacture_date", Strategies: dateStrategies()},
		WorkItems:       Field[[]WorkItem]{Name: "work_items", Strategies: workItemStrategies()},
		Materials:       Field[[]Material]{Name: "materials", Strategies: materialStrategies()},
	}
}

func (e *Engine) Extract(text string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	text = Clean(text)
	res = Result{
		WorkItems: []WorkItem{},
		Materials: []Material{},
		Sources:   map[string]string{},
	}

	if v, src, ok := e.JobNumber.Extract(text); ok {
		res.JobNumber = v
		res.Sources[e.JobNumber.Name] = src
	}
	if v, src, ok := e.PatientName.Extract(text); ok {
		res.PatientName = v
		res.Sources[e.PatientName.Name] = src
	}
	if v, src, ok := e.ManufactureDate.Extract(text); ok {
		res.ManufactureDate = v
		res.Sources[e.ManufactureDate.Name] = src
	}
	if v, src, ok := e.WorkItems.Extract(text); ok {
		res.WorkItems = v
		res.Sources[e.WorkItems.Name] = src
	}
	if v, src, ok := e.Materials.Extract(text); ok {
		res.Materials = v
		res.Sources[e.Materials.Name] = src
	}
	return res, nil
}
