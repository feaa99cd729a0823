package actions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bankbot/internal/config"
	"bankbot/internal/forms"
	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// Registry maps action names to actions.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds actions. Names must be unique.
func (r *Registry) Register(actions ...Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range actions {
		name := a.Name()
		if name == "" {
			return fmt.Errorf("action has no name")
		}
		if _, dup := r.actions[name]; dup {
			return fmt.Errorf("action %s registered twice", name)
		}
		r.actions[name] = a
	}
	return nil
}

// Lookup returns the action called name.
func (r *Registry) Lookup(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the requested action against the request's tracker.
func (r *Registry) Run(ctx context.Context, req types.Request) (types.Response, error) {
	a, ok := r.Lookup(req.NextAction)
	if !ok {
		return types.Response{}, fmt.Errorf("%w: %s", ErrUnknownAction, req.NextAction)
	}

	tr := req.Tracker
	if tr == nil {
		tr = types.NewTracker(req.SenderID)
	}
	if tr.SenderID == "" {
		tr.SenderID = req.SenderID
	}

	timer := logging.StartTimer(logging.CategoryActions, a.Name())
	defer timer.Stop()

	d := types.NewDispatcher()
	events, err := a.Run(ctx, d, tr)
	if err != nil {
		logging.ActionsError("%s failed for %s: %v", a.Name(), tr.SenderID, err)
		return types.Response{}, fmt.Errorf("%s: %w", a.Name(), err)
	}
	logging.ActionsDebug("%s for %s: %d events, %d messages", a.Name(), tr.SenderID, len(events), len(d.Messages()))

	if events == nil {
		events = []types.Event{}
	}
	responses := d.Messages()
	if responses == nil {
		responses = []types.BotMessage{}
	}
	return types.Response{Events: events, Responses: responses}, nil
}

// Default builds the registry of every action the assistant uses.
func Default(deps Deps) (*Registry, error) {
	if deps.Profile == nil {
		return nil, fmt.Errorf("actions need a profile")
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	escalation := forms.NewEscalation(deps.Config.Forms)

	payment, err := PaymentForm(deps.Profile)
	if err != nil {
		return nil, err
	}
	transfer, err := TransferForm(deps.Profile)
	if err != nil {
		return nil, err
	}
	search, err := SearchForm(deps.Profile)
	if err != nil {
		return nil, err
	}
	vendor, err := VendorForm(deps.Profile)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	err = r.Register(
		forms.NewValidationAction(payment, escalation),
		forms.NewValidationAction(transfer, escalation),
		forms.NewValidationAction(search, escalation),
		forms.NewValidationAction(vendor, nil),

		PayCreditCard(deps.Profile),
		TransferMoney(deps.Profile),
		TransactionSearch(deps.Profile),
		AskSearchConfirmation(),

		ShowBalance(deps.Profile),
		ShowRecipients(deps.Profile),
		ShowTransferCharge(),

		SessionStart(deps.Profile),
		Restart(),

		SwitchFormsAsk(),
		SwitchFormsDeny(),
		SwitchFormsAffirm(),
		SwitchBackAsk(),

		HandoffOptions(deps.Config),
		Handoff(deps.Config),

		AddVendor(deps.Profile),
		ShowVendors(deps.Profile),

		ValidateRecurrentStartDate(deps.now),
		ValidateRecurrentEndDate(),
		ExecuteRecurrentPayment(),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}
