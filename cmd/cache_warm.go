package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-registry/internal/registry"
)

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Pre-compute face vectors for every enrollee",
	Long: `Resolve the face vector of every enrollee so that later requests hit the
cache instead of calling the extractor. With the PostgreSQL backend the
vectors are also persisted and survive restarts.

Examples:
  # Warm with the configured number of workers
  face-registry cache warm

  # JSON output for scripting
  face-registry cache warm --json`,
	Args: cobra.NoArgs,
	RunE: runCacheWarm,
}

func init() {
	cacheCmd.AddCommand(cacheWarmCmd)

	cacheWarmCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// WarmCacheResult represents the result of a cache warm operation
type WarmCacheResult struct {
	Success       bool           `json:"success"`
	Enrollees     int            `json:"enrollees"`
	Loaded        int            `json:"loaded"`
	Skipped       int            `json:"skipped"`
	Sources       map[string]int `json:"sources"`
	SkipReasons   map[string]int `json:"skip_reasons,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
	DurationMs    int64          `json:"duration_ms"`
	DurationHuman string         `json:"duration_human,omitempty"`
}

func runCacheWarm(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	startTime := time.Now()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	total, err := a.store.CountEnrollees(ctx)
	if err != nil {
		return fmt.Errorf("failed to count enrollees: %w", err)
	}
	if total == 0 {
		if jsonOutput {
			return outputJSON(WarmCacheResult{Success: true, Sources: map[string]int{}})
		}
		fmt.Println("No enrollees found.")
		return nil
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		fmt.Printf("Warming vectors for %d enrollees\n\n", total)
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Warming cache"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("faces"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	report, err := a.service.WarmCache(ctx, func(registry.ItemResult) {
		if bar != nil {
			bar.Add(1)
		}
	})
	if bar != nil {
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("failed to warm cache: %w", err)
	}

	duration := time.Since(startTime)
	result := WarmCacheResult{
		Success:       true,
		Enrollees:     len(report.Items),
		Loaded:        report.Loaded(),
		Skipped:       report.Skipped(),
		Sources:       map[string]int{},
		SkipReasons:   map[string]int{},
		Warnings:      report.SkipReasons(),
		DurationMs:    duration.Milliseconds(),
		DurationHuman: formatDuration(duration),
	}
	for _, item := range report.Items {
		if item.Skipped {
			result.SkipReasons[item.Category]++
		} else {
			result.Sources[item.Source]++
		}
	}

	if jsonOutput {
		result.DurationHuman = ""
		return outputJSON(result)
	}

	fmt.Println("\nCache warm complete!")
	fmt.Printf("  Enrollees: %d\n", result.Enrollees)
	fmt.Printf("  Loaded:    %d (memory %d, persistent %d, extracted %d)\n", result.Loaded,
		result.Sources[registry.SourceMemory], result.Sources[registry.SourcePersistent], result.Sources[registry.SourceExtracted])
	if result.Skipped > 0 {
		fmt.Printf("  Skipped:   %d\n", result.Skipped)
		for reason, n := range result.SkipReasons {
			fmt.Printf("    %-12s %d\n", reason, n)
		}
		for _, w := range result.Warnings {
			fmt.Printf("    - %s\n", w)
		}
	}
	fmt.Printf("  Duration:  %s\n", result.DurationHuman)
	return nil
}
