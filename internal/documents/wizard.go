package documents

import (
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/validation"
	"mintslip-workers/internal/models"
)

// Next advances session one step. It is refused while a required field of
// the current step is blank. The preview step is terminal.
func Next(def *Definition, session *models.FormSession) error {
	step := clampStep(def, session.Step)
	session.Step = step

	if missing := MissingFields(def, step, session.Data); len(missing) > 0 {
		return errors.NewWizardStepIncompleteError(step, missing)
	}
	if step < def.PreviewStep() {
		session.Step = step + 1
	}
	return nil
}

// Back moves session one step back; at the first step it stays put.
func Back(def *Definition, session *models.FormSession) {
	step := clampStep(def, session.Step)
	if step > 0 {
		step--
	}
	session.Step = step
}

// MissingFields lists the required fields of step that are blank in data.
func MissingFields(def *Definition, step int, data map[string]string) []string {
	if step < 0 || step >= len(def.Steps) {
		return nil
	}
	return validation.RequirePresent(data, def.Steps[step].Required).Fields()
}

func clampStep(def *Definition, step int) int {
	switch {
	case step < 0:
		return 0
	case step > def.PreviewStep():
		return def.PreviewStep()
	default:
		return step
	}
}
