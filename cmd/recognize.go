package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-registry/internal/registry"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <photo>",
	Short: "Identify the person in a photo",
	Long: `Identify the person in a local photo file against the enrolled gallery.

The probe is stored under its own filename, replacing an earlier probe with
the same name. A photo named after an enrolled image or a temporary upload
is refused; rename it first.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
}

// RecognizeOutput is the JSON form of a recognition.
type RecognizeOutput struct {
	Status   string   `json:"status"`
	Label    string   `json:"label,omitempty"`
	Distance float64  `json:"distance,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	Skipped  int      `json:"skipped,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runRecognize(cmd *cobra.Command, args []string) error {
	path := args[0]
	jsonOutput := mustGetBool(cmd, "json")

	photo, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Recognize(ctx, registry.RecognizeRequest{
		Filename: filepath.Base(path),
		Photo:    photo,
	})
	if err != nil {
		return err
	}

	out := RecognizeOutput{
		Status:   string(result.Status),
		Label:    result.Label,
		Distance: result.Distance,
		Ref:      result.Ref,
	}
	if result.Report != nil {
		out.Skipped = result.Report.Skipped()
		out.Warnings = result.Report.SkipReasons()
	}
	if jsonOutput {
		return outputJSON(out)
	}

	switch result.Status {
	case registry.StatusMatched:
		fmt.Printf("%s (distance %.4f)\n", result.Label, result.Distance)
	case registry.StatusNoFace:
		fmt.Println("No face detected")
	default:
		fmt.Println(result.Label)
	}
	return nil
}
