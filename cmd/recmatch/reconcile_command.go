package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"recmatch/internal/reconcile"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var stubsPath string
	var catalogPath string
	var year string
	var externalID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "reconcile [title]",
		Short: "Reconcile recommendation stubs against the metadata catalog",
		Long: `Reconcile resolves recommendation stubs to verified metadata records.

Stubs come from a JSON file (--stubs) or from a single title given as an
argument. Outcomes are cached, so re-running over the same stubs is cheap.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stubs, err := collectStubs(stubsPath, args, year, externalID)
			if err != nil {
				return err
			}
			if len(stubs) == 0 {
				return fmt.Errorf("nothing to reconcile: pass a title or --stubs file")
			}

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
		},
	}

	cmd.Flags().StringVar(&stubsPath, "stubs", "", "Path to a JSON file of recommendation stubs")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a JSON metadata catalog")
	cmd.Flags().StringVar(&year, "year", "", "Year hint for a single-title reconciliation")
	cmd.Flags().StringVar(&externalID, "id", "", "External identifier for a single-title reconciliation")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the batch result as JSON")

	return cmd
}

func collectStubs(stubsPath string, args []string, year, externalID string) ([]reconcile.Stub, error) {
	if stubsPath != "" {
		data, err := os.ReadFile(stubsPath)
		if err != nil {
			return nil, fmt.Errorf("read stubs: %w", err)
		}
		var stubs []reconcile.Stub
		if err := json.Unmarshal(data, &stubs); err != nil {
			return nil, fmt.Errorf("decode stubs: %w", err)
		}
		return stubs, nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return []reconcile.Stub{{
			Title:      strings.TrimSpace(args[0]),
			Year:       strings.TrimSpace(year),
			ExternalID: strings.TrimSpace(externalID),
		}}, nil
	}
	return nil, nil
}

func printBatchResult(cmd *cobra.Command, result reconcile.BatchResult) {
	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		rows = append(rows, []string{
			item.Stub.Title,
			string(item.Status),
			formatConfidence(item),
			formatMatch(item),
			formatNote(item),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Title", "Status", "Confidence", "Match", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "batch %s: %d total, %d verified, %d failed, %d skipped\n",
		result.BatchID, result.Total, result.Verified, result.Failed, result.Skipped)
}

func formatConfidence(item reconcile.Item) string {
	if item.Status == reconcile.StatusSkipped {
		return "-"
	}
	return fmt.Sprintf("%.2f", item.Confidence)
}

func formatMatch(item reconcile.Item) string {
	switch {
	case item.Matched != nil:
		if item.Matched.Year != "" {
			return fmt.Sprintf("%s (%s)", item.Matched.Title, item.Matched.Year)
		}
		return item.Matched.Title
	case len(item.PotentialMatches) > 0:
		return fmt.Sprintf("%d candidates", len(item.PotentialMatches))
	default:
		return "-"
	}
}

func formatNote(item reconcile.Item) string {
	var notes []string
	if item.LowConfidenceMatch {
		notes = append(notes, "low confidence")
	}
	if item.FromCache {
		notes = append(notes, "cached")
	}
	if item.SkipReason != "" && item.SkipReason != "cached" {
		notes = append(notes, item.SkipReason)
	}
	if item.Error != "" {
		notes = append(notes, item.Error)
	}
	return strings.Join(notes, "; ")
}

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
