package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-registry/internal/registry"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <photo>",
	Short: "Enroll a person from a photo",
	Long: `Enroll a person from a local photo file.

The photo is rejected when it contains no face or when the face is already
enrolled within the configured tolerance.

Examples:
  face-registry enroll "Alice Smith" ./alice.jpg
  face-registry enroll "Bob" ./bob.png --email bob@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("email", "", "Contact email of the enrollee")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]
	email := mustGetString(cmd, "email")

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

	result, err := a.service.Enroll(ctx, registry.EnrollRequest{
		Name:     name,
		Email:    email,
		Filename: filepath.Base(path),
		Photo:    photo,
	})
	if err != nil {
		var dup *registry.DuplicateError
		if errors.As(err, &dup) {
			fmt.Printf("Already registered as: %s (distance %.4f)\n", dup.Label, dup.Distance)
		}
		return err
	}

	fmt.Printf("Enrolled %s (id %d)\n", result.Enrollee.Name, result.Enrollee.ID)
	fmt.Printf("  Image: %s\n", result.Enrollee.ImagePath)
	if result.Report != nil && result.Report.Skipped() > 0 {
		fmt.Printf("  Skipped %d unreadable gallery entries during the duplicate check\n", result.Report.Skipped())
	}
	return nil
}
