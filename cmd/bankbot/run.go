package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"bankbot/internal/responses"
	"bankbot/internal/types"
)

var (
	trackerPath string
	senderID    string
	jsonOutput  bool
)

var runCmd = &cobra.Command{
	Use:   "run <action>",
	Short: "Run one action against a tracker snapshot",
	Long: `Runs a single custom action and prints the messages it sends and the
events it returns. Without --tracker a new, empty conversation is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runAction,
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the registered actions",
	Args:  cobra.NoArgs,
	RunE:  listActions,
}

func runAction(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tr, err := loadTracker(trackerPath, senderID)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.registry.Run(ctx, types.Request{NextAction: args[0], SenderID: tr.SenderID, Tracker: tr})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(a.templates, tr, resp)
	return nil
}

// loadTracker reads a tracker snapshot, or starts a new conversation when
// path is empty. An explicit sender overrides the snapshot's.
func loadTracker(path, sender string) (*types.Tracker, error) {
	tr := types.NewTracker("")
	if path != "" {
		data, err := readInput(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read tracker: %w", err)
		}
		if tr, err = types.ParseTracker(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if sender != "" {
		tr.SenderID = sender
	}
	if tr.SenderID == "" {
		tr.SenderID = uuid.NewString()
	}
	return tr, nil
}

// readInput reads path, or stdin for "-". Stdin must be piped.
func readInput(path string) ([]byte, error) {
	if path != "-" {
		return os.ReadFile(path)
	}
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return nil, errors.New("stdin is a terminal; pipe the tracker JSON in")
	}
	return io.ReadAll(os.Stdin)
}

func listActions(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, name := range a.registry.Names() {
		fmt.Println(name)
	}
	return nil
}

// printResponse shows the rendered messages followed by the events. Slots
// in templates are read from the tracker after the events are applied.
func printResponse(tpl *responses.Templates, tr *types.Tracker, resp types.Response) {
	view := tr.Clone()
	if view == nil {
		view = types.NewTracker("")
	}
	view.Apply(resp.Events...)

	for _, msg := range resp.Responses {
		r := tpl.Render(msg, view.Slots)
		if r.Custom != nil {
			data, err := json.Marshal(r.Custom)
			if err != nil {
				data = []byte(fmt.Sprint(r.Custom))
			}
			fmt.Printf("%s %s\n", color.MagentaString("bot (json):"), data)
			continue
		}
		fmt.Printf("%s %s\n", color.CyanString("bot:"), r.Text)
		for _, b := range r.Buttons {
			fmt.Printf("     %s %s\n", color.YellowString("[%s]", b.Title), b.Payload)
		}
	}
	for _, ev := range resp.Events {
		fmt.Printf("%s %s\n", color.GreenString("event:"), ev)
	}
}
