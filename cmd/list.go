package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled people",
	Long: `List enrolled people in enrollment order.

The optional --query filter matches name or email, ignoring case and accents.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("json", false, "Output as JSON")
	listCmd.Flags().StringP("query", "q", "", "Filter by name or email")
}

// EnrolleeOutput is the JSON form of an enrollee.
type EnrolleeOutput struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	ImagePath string `json:"image_path"`
	CreatedAt string `json:"created_at"`
}

func runList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	query := mustGetString(cmd, "query")

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	enrollees, err := a.service.ListEnrollees(ctx, query)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := make([]EnrolleeOutput, 0, len(enrollees))
		for _, e := range enrollees {
			out = append(out, EnrolleeOutput{
				ID:        e.ID,
				Name:      e.Name,
				Email:     e.Email,
				ImagePath: e.ImagePath,
				CreatedAt: e.CreatedAt.Format(time.RFC3339),
			})
		}
		return outputJSON(out)
	}

	if len(enrollees) == 0 {
		fmt.Println("No enrollees found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tIMAGE\tENROLLED")
	for _, e := range enrollees {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Email, e.ImagePath, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("\nTotal: %d\n", len(enrollees))
	return nil
}
