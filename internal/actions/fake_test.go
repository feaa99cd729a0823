package actions

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"bankbot/internal/forms"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

type movement struct {
	to     string
	amount float64
}

// fakeProfile is an in-memory Profile.
type fakeProfile struct {
	balance    float64
	cards      []store.CreditCard
	recipients []string
	vendors    []string
	summary    store.Summary

	searches  []store.SearchQuery
	payments  []movement
	transfers []movement
	err       error
}

func newFakeProfile() *fakeProfile {
	return &fakeProfile{
		balance: 1000,
		cards: []store.CreditCard{
			{ID: 1, Name: "iron bank", MinimumBalance: 30, CurrentBalance: 250.5},
			{ID: 2, Name: "credit all", MinimumBalance: 20, CurrentBalance: 100},
			{ID: 3, Name: "gringots", MinimumBalance: 40, CurrentBalance: 75.25},
		},
		recipients: []string{"katy parrow", "evan oslo", "william baker"},
		vendors:    []string{"target", "starbucks", "amazon"},
	}
}

func (f *fakeProfile) AccountForSession(_ context.Context, sessionID string) (store.Account, error) {
	if f.err != nil {
		return store.Account{}, f.err
	}
	return store.Account{ID: 7, SessionID: sessionID, HolderName: "current_user_" + sessionID, Currency: "$"}, nil
}

func (f *fakeProfile) AccountBalance(context.Context, string) (float64, error) {
	return f.balance, f.err
}

func (f *fakeProfile) ListCreditCards(context.Context, string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	names := make([]string, 0, len(f.cards))
	for _, c := range f.cards {
		names = append(names, c.Name)
	}
	return names, nil
}

func (f *fakeProfile) CreditCard(_ context.Context, _ string, name string) (store.CreditCard, error) {
	if f.err != nil {
		return store.CreditCard{}, f.err
	}
	for _, c := range f.cards {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return store.CreditCard{}, fmt.Errorf("%w: %s", store.ErrCardNotFound, name)
}

func (f *fakeProfile) ListKnownRecipients(context.Context, string) ([]string, error) {
	return append([]string(nil), f.recipients...), f.err
}

func (f *fakeProfile) Vendors(context.Context) ([]string, error) {
	return append([]string(nil), f.vendors...), f.err
}

func (f *fakeProfile) AddVendor(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	for _, v := range f.vendors {
		if strings.EqualFold(v, name) {
			return fmt.Errorf("%w: %s", store.ErrVendorExists, name)
		}
	}
	f.vendors = append(f.vendors, strings.ToLower(name))
	return nil
}

func (f *fakeProfile) SearchTransactions(_ context.Context, _ string, q store.SearchQuery) (store.Summary, error) {
	f.searches = append(f.searches, q)
	return f.summary, f.err
}

func (f *fakeProfile) PayOffCreditCard(_ context.Context, _ string, card string, amount float64) error {
	if f.err != nil {
		return f.err
	}
	if amount <= 0 {
		return store.ErrInvalidAmount
	}
	if amount > f.balance {
		return store.ErrInsufficientFunds
	}
	f.balance -= amount
	f.payments = append(f.payments, movement{to: card, amount: amount})
	return nil
}

func (f *fakeProfile) Transfer(_ context.Context, _ string, recipient string, amount float64) error {
	if f.err != nil {
		return f.err
	}
	if amount <= 0 {
		return store.ErrInvalidAmount
	}
	if amount > f.balance {
		return store.ErrInsufficientFunds
	}
	f.balance -= amount
	f.transfers = append(f.transfers, movement{to: recipient, amount: amount})
	return nil
}

var _ Profile = (*fakeProfile)(nil)

func run(t *testing.T, a Action, tr *types.Tracker) ([]types.Event, []types.BotMessage) {
	t.Helper()
	d := types.NewDispatcher()
	events, err := a.Run(context.Background(), d, tr)
	require.NoError(t, err)
	return events, d.Messages()
}

// formTurn builds the tracker for a turn of an active form that asked for
// requested. rvf < 0 leaves the failure counter unset.
func formTurn(form string, requested forms.Slot, rvf int, extracted ...types.SlotValue) *types.Tracker {
	tr := types.NewTracker("alice")
	tr.ActiveLoop = types.Loop{Name: form}
	tr.Slots[string(forms.ContinueForm)] = "yes"
	tr.Slots[string(forms.RequestedSlot)] = string(requested)
	if rvf >= 0 {
		tr.Slots[string(forms.RepeatedValidationFailures)] = float64(rvf)
	}
	tr.Events = append(tr.Events, types.UserUttered("..."))
	for _, sv := range extracted {
		tr.Slots[sv.Name] = sv.Value
		tr.Events = append(tr.Events, types.SlotSet(sv.Name, sv.Value))
	}
	return tr
}

func slot(name forms.Slot, value any) types.SlotValue {
	return types.SlotValue{Name: string(name), Value: value}
}

// valueOf returns the last value events set for name.
func valueOf(events []types.Event, name forms.Slot) (any, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IsSlot(string(name)) {
			return events[i].Value, true
		}
	}
	return nil, false
}

func validation(t *testing.T, build func(Profile) (*forms.Form, error), p Profile) Action {
	t.Helper()
	f, err := build(p)
	require.NoError(t, err)
	return forms.NewValidationAction(f, forms.NewEscalation(newTestConfig().Forms))
}
