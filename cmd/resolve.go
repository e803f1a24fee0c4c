package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytscript/internal/batch"
	"ytscript/internal/videoid"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [references...]",
	Short: "Print the video ID of each reference without fetching anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  resolveRun,
}

type resolution struct {
	Reference string `json:"reference"`
	ID        string `json:"id,omitempty"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

func resolveRun(cmd *cobra.Command, args []string) error {
	refs := batch.Split(strings.Join(args, ","))

	var (
		results []resolution
		failed  int
	)
	for _, ref := range refs {
		id, err := videoid.Resolve(ref)
		if err != nil {
			failed++
			results = append(results, resolution{Reference: ref, Error: err.Error()})
			continue
		}
		results = append(results, resolution{Reference: ref, ID: id.String(), URL: videoid.WatchURL(id)})
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
	} else {
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(w, "%s\t%s\n", r.Reference, r.Error)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Reference, r.ID, r.URL)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d references did not resolve", failed, len(refs))
	}
	return nil
}
