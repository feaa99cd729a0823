package actions

import (
	"context"
	"fmt"
	"sort"

	"bankbot/internal/config"
	"bankbot/internal/forms"
	"bankbot/internal/types"
)

// restChannel is the input channel that understands custom payloads.
const restChannel = "rest"

// HandoffOptions is action_handoff_options: one button per configured bot.
func HandoffOptions(cfg *config.Config) Action {
	return Func("action_handoff_options", func(_ context.Context, d *types.Dispatcher, _ *types.Tracker) ([]types.Event, error) {
		if !cfg.HandoffEnabled() {
			d.Utter("utter_no_handoff", nil)
			return nil, nil
		}

		hosts := cfg.HandoffHosts
		bots := make([]string, 0, len(hosts))
		for bot := range hosts {
			bots = append(bots, bot)
		}
		sort.Strings(bots)

		buttons := make([]types.Button, 0, len(bots))
		for _, bot := range bots {
			buttons = append(buttons, types.Button{
				Title:   hosts[bot].Title,
				Payload: fmt.Sprintf(`/trigger_handoff{"handoff_to":%q}`, bot),
			})
		}
		d.UtterText("I can't transfer you to a human, but I can transfer you to one of these bots", buttons...)
		return nil, nil
	})
}

// Handoff is action_handoff. REST clients get the target as a custom
// payload; other channels are told where they would have gone.
func Handoff(cfg *config.Config) Action {
	return Func("action_handoff", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		d.Utter("utter_handoff", nil)

		host, ok := cfg.HandoffHosts[tr.SlotString(string(forms.HandoffTo))]
		if !ok || host.URL == "" {
			d.Utter("utter_no_handoff", nil)
			return nil, nil
		}
		if tr.LatestInputChannel == restChannel {
			d.UtterJSON(map[string]any{"handoff_host": host.URL, "title": host.Title})
		} else {
			d.Utter("utter_wouldve_handed_off", map[string]any{"handoffhost": host.URL})
		}
		return nil, nil
	})
}
