// Package actions implements the custom actions of the banking assistant:
// the validation actions of its forms, the actions that submit them, and the
// small informational actions around them.
//
// Actions never modify the conversation directly. Each returns the events the
// dialogue engine should apply and queues its messages on a dispatcher.
package actions

import (
	"context"
	"errors"
	"time"

	"bankbot/internal/config"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

// ErrUnknownAction is returned for action names nothing is registered for.
var ErrUnknownAction = errors.New("unknown action")

// Action is one named custom action.
type Action interface {
	Name() string
	Run(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error)
}

// RunFunc is the body of a simple action.
type RunFunc func(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error)

type funcAction struct {
	name string
	run  RunFunc
}

func (a funcAction) Name() string { return a.name }

func (a funcAction) Run(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
	return a.run(ctx, d, tr)
}

// Func wraps run as an Action called name.
func Func(name string, run RunFunc) Action {
	return funcAction{name: name, run: run}
}

// Profile is the bank data behind the actions. *store.Store implements it.
type Profile interface {
	AccountForSession(ctx context.Context, sessionID string) (store.Account, error)
	AccountBalance(ctx context.Context, sessionID string) (float64, error)
	ListCreditCards(ctx context.Context, sessionID string) ([]string, error)
	CreditCard(ctx context.Context, sessionID, name string) (store.CreditCard, error)
	ListKnownRecipients(ctx context.Context, sessionID string) ([]string, error)
	Vendors(ctx context.Context) ([]string, error)
	AddVendor(ctx context.Context, name string) error
	SearchTransactions(ctx context.Context, sessionID string, q store.SearchQuery) (store.Summary, error)
	PayOffCreditCard(ctx context.Context, sessionID, card string, amount float64) error
	Transfer(ctx context.Context, sessionID, recipient string, amount float64) error
}

var _ Profile = (*store.Store)(nil)

// Deps are what the default actions are built from.
type Deps struct {
	Profile Profile
	Config  *config.Config
	// Now is the clock for date validation. Defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
