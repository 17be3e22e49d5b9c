package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"recmatch/internal/services/suggest"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var overview string
	var mediaType string
	var limit int
	var catalogPath string
	var runReconcile bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <title>",
		Short: "Fetch recommendation stubs for a seed title",
		Long: `Suggest asks the configured suggestion model for titles similar to the
seed. With --reconcile the stubs are immediately verified against the
catalog instead of being printed raw.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Suggestions.APIKey == "" {
				return errors.New("suggestions.api_key not configured")
			}

			client := suggest.NewClient(cfg.Suggestions.APIKey, cfg.Suggestions.BaseURL,
				suggest.WithModel(cfg.Suggestions.Model),
				suggest.WithHTTPClient(&http.Client{
					Timeout: time.Duration(cfg.Suggestions.TimeoutSeconds) * time.Second,
				}),
			)
			stubs, err := client.Suggest(cmd.Context(), args[0], overview, mediaType, limit)
			if err != nil {
				return fmt.Errorf("fetch suggestions: %w", err)
			}
			if len(stubs) == 0 {
				return errors.New("no suggestions returned")
			}

			if runReconcile {
				reconciler, cleanup, err := ctx.newReconciler(catalogPath)
				if err != nil {
					return err
				}
				defer cleanup()

				result := reconciler.ReconcileBatch(cmd.Context(), stubs)
				if jsonOutput {
					return printJSON(cmd, result)
				}
				printBatchResult(cmd, result)
				return nil
			}

			if jsonOutput {
				return printJSON(cmd, stubs)
			}
			rows := make([][]string, 0, len(stubs))
			for _, stub := range stubs {
				rows = append(rows, []string{
					stub.Title, stub.Year, stub.ExternalID, stub.MediaTypeHint,
					truncate(stub.Reason, 60),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Title", "Year", "ID", "Type", "Reason"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&overview, "overview", "", "Seed plot overview for better suggestions")
	cmd.Flags().StringVar(&mediaType, "media-type", "", "Seed media type (movie or tv)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of suggestions")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a JSON metadata catalog")
	cmd.Flags().BoolVar(&runReconcile, "reconcile", false, "Reconcile the suggestions immediately")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit results as JSON")

	return cmd
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
