package forms

import (
	"context"
	"fmt"

	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// ValidationAction is the validate_<form> action the engine runs after every
// user turn while the form is active.
type ValidationAction struct {
	form       *Form
	escalation *Escalation
}

// NewValidationAction wraps form. A nil escalation validates slots without
// counting failures.
func NewValidationAction(form *Form, escalation *Escalation) *ValidationAction {
	return &ValidationAction{form: form, escalation: escalation}
}

// Name returns the action name.
func (a *ValidationAction) Name() string { return a.form.ActionName() }

// Form returns the wrapped form.
func (a *ValidationAction) Form() *Form { return a.form }

// Run validates the slots extracted this turn, in extraction order, then
// updates the failure counter for the requested slot and finally runs the
// form's hook. Each validator sees the values accepted before it; the
// counter is judged against the turn's incoming state.
func (a *ValidationAction) Run(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
	timer := logging.StartTimer(logging.CategoryForms, a.Name())
	defer timer.Stop()

	var events []types.Event
	if a.escalation != nil && !filled(tr.Slot(string(ContinueForm))) {
		events = append(events, ContinueForm.Set("yes"))
	}

	work := tr.Clone()
	work.Apply(events...)
	var updates []Update
	for _, sv := range tr.SlotsToValidate() {
		slot := Slot(sv.Name)
		validate, ok := a.form.Validator(slot)
		if !ok {
			logging.FormsDebug("%s: no validator for %s, leaving it to the engine", a.form.Name(), slot)
			continue
		}
		r, err := validate(ctx, sv.Value, work)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to validate %s: %w", a.form.Name(), slot, err)
		}
		d.Send(r.Messages...)
		work.Apply(r.Events()...)
		updates = append(updates, r.Updates...)
	}
	events = append(events, Result{Updates: updates}.Events()...)

	if a.escalation != nil {
		tracked, msgs, err := a.escalation.Track(ctx, a.form, tr, updates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.form.Name(), err)
		}
		d.Send(msgs...)
		events = append(events, tracked...)
		work.Apply(tracked...)
	}

	if a.form.next != nil {
		events = append(events, a.form.next(ctx, work)...)
	}
	return events, nil
}
