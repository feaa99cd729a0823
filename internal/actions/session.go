package actions

import (
	"context"

	"bankbot/internal/forms"
	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// SessionStart is action_session_start. It carries the previous session's
// slots over and makes sure the sender has a bank profile.
func SessionStart(p Profile) Action {
	return Func("action_session_start", func(ctx context.Context, _ *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		events := []types.Event{types.SessionStarted()}
		for _, ev := range tr.Events {
			if ev.Kind == types.KindSlot {
				events = append(events, types.SlotSet(ev.Name, ev.Value))
			}
		}

		account, err := p.AccountForSession(ctx, tr.SenderID)
		if err != nil {
			return nil, err
		}
		logging.Actions("Session started for %s (account %s)", tr.SenderID, account.Number())

		events = append(events,
			forms.Currency.Set(account.Currency),
			types.ActionExecuted("action_listen"),
		)
		return events, nil
	})
}

// Restart is action_restart.
func Restart() Action {
	return Func("action_restart", func(context.Context, *types.Dispatcher, *types.Tracker) ([]types.Event, error) {
		return []types.Event{types.Restarted(), types.FollowupAction("action_session_start")}, nil
	})
}
