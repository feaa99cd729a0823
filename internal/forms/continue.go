package forms

import (
	"context"
	"strings"

	"bankbot/internal/types"
)

// ValidateContinue validates the answer to "do you want to continue?". A "no"
// stops asking and marks the form as not confirmed, so the form's submit
// action cancels it.
func ValidateContinue(_ context.Context, value any, _ *types.Tracker) (Result, error) {
	switch answer(value) {
	case "yes":
		return Accept(ContinueForm, "yes"), nil
	case "no":
		return Reject(RequestedSlot).
			Also(ConfirmForm, "no").
			Also(ContinueForm, "no"), nil
	default:
		return Reject(ContinueForm), nil
	}
}

// ValidateConfirm validates the final yes/no confirmation of a form.
func ValidateConfirm(_ context.Context, value any, _ *types.Tracker) (Result, error) {
	switch a := answer(value); a {
	case "yes", "no":
		return Accept(ConfirmForm, a), nil
	default:
		return Reject(ConfirmForm), nil
	}
}

func answer(value any) string {
	s, _ := value.(string)
	return strings.ToLower(strings.TrimSpace(s))
}
