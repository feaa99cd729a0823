package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bankbot/internal/actions"
	"bankbot/internal/logging"
	"bankbot/internal/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Replay recorded conversations",
	Long: `Replays every *.json conversation in a directory. A conversation is a
sender id and a list of action requests, run in order. Conversations run
concurrently, bounded by batch.concurrency, and the whole batch is bounded
by batch.timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// conversation is one recorded file.
type conversation struct {
	SenderID string          `json:"sender_id"`
	Requests []types.Request `json:"requests"`
}

type turn struct {
	req  types.Request
	resp types.Response
}

type batchResult struct {
	file  string
	turns []turn
	err   error
}

func runBatch(cmd *cobra.Command, args []string) error {
	files, err := filepath.Glob(filepath.Join(args[0], "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no conversations in %s", args[0])
	}
	sort.Strings(files)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetBatchTimeout())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	timer := logging.StartTimer(logging.CategoryCLI, "batch")
	results := make([]batchResult, len(files))

	var g errgroup.Group
	g.SetLimit(max(1, cfg.Batch.Concurrency))
	for i, file := range files {
		g.Go(func() error {
			results[i] = replay(ctx, a.registry, file)
			return nil
		})
	}
	_ = g.Wait()
	timer.Stop()

	failed := 0
	for _, r := range results {
		name := filepath.Base(r.file)
		if r.err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", color.RedString("✗"), name, r.err)
			continue
		}
		fmt.Printf("%s %s (%d actions)\n", color.GreenString("✓"), color.CyanString(name), len(r.turns))
		for _, t := range r.turns {
			fmt.Printf("  %s %s\n", color.YellowString("action:"), t.req.NextAction)
			printResponse(a.templates, t.req.Tracker, t.resp)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversations failed", failed, len(results))
	}
	return nil
}

// replay runs one conversation's requests in order and stops at the first
// failure.
func replay(ctx context.Context, registry *actions.Registry, file string) batchResult {
	res := batchResult{file: file}

	data, err := os.ReadFile(file)
	if err != nil {
		res.err = err
		return res
	}
	var conv conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		res.err = fmt.Errorf("failed to parse conversation: %w", err)
		return res
	}
	if conv.SenderID == "" {
		conv.SenderID = uuid.NewString()
	}

	for _, req := range conv.Requests {
		if req.SenderID == "" {
			req.SenderID = conv.SenderID
		}
		if req.Tracker == nil {
			req.Tracker = types.NewTracker(req.SenderID)
		}
		if req.Tracker.SenderID == "" {
			req.Tracker.SenderID = req.SenderID
		}
		resp, err := registry.Run(ctx, req)
		if err != nil {
			logger.Warn("Conversation failed", zap.String("file", file), zap.String("action", req.NextAction), zap.Error(err))
			res.err = err
			return res
		}
		res.turns = append(res.turns, turn{req: req, resp: resp})
	}
	return res
}
