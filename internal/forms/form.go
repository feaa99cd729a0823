package forms

import (
	"context"
	"fmt"

	"bankbot/internal/types"
)

// Hook runs after a turn's slots are validated. It sees the conversation
// with the turn's accepted values applied and may return extra events, for
// example to redirect the form to another slot.
type Hook func(ctx context.Context, tr *types.Tracker) []types.Event

// Form describes the slots a form collects and how each is validated.
type Form struct {
	name       string
	required   []Slot
	validators map[Slot]Validator
	explainers map[Slot]Explainer
	next       Hook
}

// FormOption customises a Form.
type FormOption func(*Form)

// WithExplainer registers an explainer for slot, used when the user keeps
// failing to provide it.
func WithExplainer(slot Slot, e Explainer) FormOption {
	return func(f *Form) {
		f.explainers[slot] = e
	}
}

// WithNext registers the post-validation hook.
func WithNext(h Hook) FormOption {
	return func(f *Form) {
		f.next = h
	}
}

// NewForm builds a form. Every required slot needs a validator; use
// PassThrough to accept a slot unchecked. Validators may also cover slots
// the form only asks for conditionally.
func NewForm(name string, required []Slot, validators map[Slot]Validator, opts ...FormOption) (*Form, error) {
	if name == "" {
		return nil, fmt.Errorf("form name is empty")
	}
	if len(required) == 0 {
		return nil, fmt.Errorf("form %s has no required slots", name)
	}

	f := &Form{
		name:       name,
		validators: make(map[Slot]Validator, len(validators)),
		explainers: make(map[Slot]Explainer),
	}
	seen := make(map[Slot]bool, len(required))
	for _, s := range required {
		if seen[s] {
			return nil, fmt.Errorf("form %s lists slot %s twice", name, s)
		}
		seen[s] = true
		if validators[s] == nil {
			return nil, fmt.Errorf("form %s: no validator for required slot %s", name, s)
		}
		f.required = append(f.required, s)
	}
	for s, v := range validators {
		if v == nil {
			return nil, fmt.Errorf("form %s: nil validator for slot %s", name, s)
		}
		f.validators[s] = v
	}
	for _, opt := range opts {
		opt(f)
	}
	for s := range f.explainers {
		if _, ok := f.validators[s]; !ok {
			return nil, fmt.Errorf("form %s: explainer for unknown slot %s", name, s)
		}
	}
	return f, nil
}

// MustForm is NewForm for forms defined at init time.
func MustForm(name string, required []Slot, validators map[Slot]Validator, opts ...FormOption) *Form {
	f, err := NewForm(name, required, validators, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the form name, e.g. cc_payment_form.
func (f *Form) Name() string { return f.name }

// ActionName returns the name of the form's validation action.
func (f *Form) ActionName() string { return "validate_" + f.name }

// RequiredSlots returns the slots the form collects, in order.
func (f *Form) RequiredSlots() []Slot {
	return append([]Slot(nil), f.required...)
}

// Validator returns the validator registered for slot.
func (f *Form) Validator(slot Slot) (Validator, bool) {
	v, ok := f.validators[slot]
	return v, ok
}

// Explainer returns the explainer registered for slot.
func (f *Form) Explainer(slot Slot) (Explainer, bool) {
	e, ok := f.explainers[slot]
	return e, ok
}

// PassThrough accepts whatever was extracted for slot.
func PassThrough(slot Slot) Validator {
	return func(_ context.Context, value any, _ *types.Tracker) (Result, error) {
		return Accept(slot, value), nil
	}
}
