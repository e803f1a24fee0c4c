package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"ytscript/internal/batch"
	"ytscript/internal/config"
	"ytscript/internal/history"
	"ytscript/internal/httputil"
	"ytscript/internal/media"
	"ytscript/internal/transcript"
	"ytscript/internal/ui"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [references...]",
	Short: "Fetch transcripts for one or more videos",
	Args:  cobra.ArbitraryArgs,
	RunE:  fetchRun,
}

// fetchOutput is the --json document.
type fetchOutput struct {
	Successes []media.Transcript `json:"successes"`
	Failures  []media.Failure    `json:"failures"`
	Cancelled []string           `json:"cancelled,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func fetchRun(cmd *cobra.Command, args []string) error {
	raw := strings.Join(args, ",")
	if len(batch.Split(raw)) == 0 {
		return cmd.Help()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *history.Store
	if cfg.History {
		store = openHistory()
		if store != nil {
			defer store.Close()
		}
	}

	orch := newOrchestrator(cfg, store)
	res, err := orch.Run(ctx, raw)
	if res == nil {
		return err
	}

	if flagJSON {
		if encErr := writeJSON(cmd.OutOrStdout(), res, err); encErr != nil {
			return encErr
		}
		return err
	}

	writeText(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
	return err
}

// newOrchestrator wires the page fetcher, transcript fetcher and batch
// orchestrator from c. Completed items are recorded in store when it is non-nil.
func newOrchestrator(c *config.Config, store *history.Store) *batch.Orchestrator {
	pages := httputil.NewFetcher(httputil.NewClient(), c.Timeout)

	opts := []transcript.Option{
		transcript.WithMaxAttempts(c.MaxAttempts),
		transcript.WithMinChars(c.MinChars),
		transcript.WithAcceptShort(c.AcceptShort),
		transcript.WithBackoff(c.NetworkBackoff, c.ParseBackoff),
		transcript.WithJitter(c.Jitter),
		transcript.WithLanguage(c.Language),
		transcript.WithLogger(logger),
	}
	if c.RequestsPerMinute > 0 {
		limit := rate.Every(time.Minute / time.Duration(c.RequestsPerMinute))
		opts = append(opts, transcript.WithLimiter(rate.NewLimiter(limit, 1)))
	}
	fetcher := transcript.New(pages, opts...)

	batchOpts := []batch.Option{
		batch.WithDelay(c.DelayMin, c.DelayMax),
		batch.WithLogger(logger),
	}
	if store != nil {
		batchOpts = append(batchOpts, batch.WithObserver(func(item batch.Item) {
			if _, err := store.Record(context.Background(), entryFromItem(item)); err != nil {
				logger.Warn("recording history", "error", err)
			}
		}))
	}
	return batch.New(fetcher, batchOpts...)
}

func openHistory() *history.Store {
	path, err := config.HistoryPath()
	if err != nil {
		logger.Warn("history disabled", "error", err)
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		logger.Warn("history disabled", "error", err)
		return nil
	}
	return store
}

// entryFromItem converts a batch outcome to a history row.
func entryFromItem(item batch.Item) media.HistoryEntry {
	e := media.HistoryEntry{
		VideoID:   item.VideoID,
		Reference: item.Reference,
		Status:    media.StatusOK,
	}
	if item.Err != nil {
		e.Status = media.StatusFailed
		e.Reason = item.Err.Error()
		return e
	}
	e.Title = item.Transcript.Title
	e.Chars = len([]rune(item.Transcript.Text))
	return e
}

// writeText prints transcripts to w and the batch summary to errW, styling
// each only when it is a terminal.
func writeText(w, errW io.Writer, res *media.BatchResult) {
	out := ui.ForWriter(w)
	for i, t := range res.Successes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, out.Transcript(t))
	}
	fmt.Fprint(errW, ui.ForWriter(errW).Summary(res))
}

func writeJSON(w io.Writer, res *media.BatchResult, runErr error) error {
	out := fetchOutput{
		Successes: res.Successes,
		Failures:  res.Failures,
		Cancelled: res.Cancelled,
	}
	if out.Successes == nil {
		out.Successes = []media.Transcript{}
	}
	if out.Failures == nil {
		out.Failures = []media.Failure{}
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
