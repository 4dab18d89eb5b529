package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/store"
)

var (
	projectName    string
	projectVerdict string
)

// projectsCmd lists stored project records
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List stored projects",
	Long: `Lists projects in the store, best score first.

Example:
  go run ./cmd/quantum projects
  go run ./cmd/quantum projects --name pepe
  go run ./cmd/quantum projects --verdict ACCEPT`,
	RunE: runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.Flags().StringVar(&projectName, "name", "", "case-insensitive exact name")
	projectsCmd.Flags().StringVar(&projectVerdict, "verdict", "", "ACCEPT, REVIEW or REJECT")
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadBase()
	if err != nil {
		return err
	}

	st, err := store.Open(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var records []contracts.ProjectRecord
	if projectName != "" {
		records, err = st.GetByName(cmd.Context(), projectName)
	} else {
		records, err = st.GetAll(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("read projects: %w", err)
	}

	PrintProjects(cmd.OutOrStdout(), filterVerdict(records, projectVerdict))
	return nil
}

func filterVerdict(records []contracts.ProjectRecord, verdict string) []contracts.ProjectRecord {
	want := contracts.Verdict(strings.ToUpper(strings.TrimSpace(verdict)))
	out := make([]contracts.ProjectRecord, 0, len(records))
	for _, r := range records {
		if want == "" || r.Decision.Verdict == want {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Decision.Score > out[j].Decision.Score
	})
	return out
}

// PrintProjects renders records as an aligned table
func PrintProjects(w io.Writer, records []contracts.ProjectRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No projects found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERDICT\tSCORE\tRISK\tMULT\tNAME\tSOURCE\tSCANS\tURL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Decision.Verdict,
			r.Decision.Score,
			r.Decision.Risk,
			r.Decision.EstimatedMultiple,
			r.DisplayName(),
			r.Source,
			r.ScanCount,
			r.URL,
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d project(s)\n", len(records))
}
