package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ashureev/taskchat/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
)

const maxCell = 40

func checkFormat(format string) error {
	switch format {
	case formatTable, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or yaml)", format)
	}
}

func renderUsers(w io.Writer, format string, users []*domain.User) error {
	if format == formatYAML {
		return writeYAML(w, users)
	}
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER ID\tNAME\tREGISTERED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.UserID, cell(u.DisplayName), u.RegisteredAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func renderTasks(w io.Writer, format string, tasks []*domain.Task) error {
	if format == formatYAML {
		return writeYAML(w, tasks)
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tDONE\tTITLE\tDESCRIPTION\tCREATED")
	for _, t := range tasks {
		done := "no"
		if t.Done {
			done = "yes"
		}
		desc := "-"
		if t.HasDescription() {
			desc = cell(t.DescriptionText())
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.OwnerID, done, cell(t.Title), desc, t.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// cell flattens s to one line and truncates it for table output.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxCell {
		return string(r[:maxCell-1]) + "…"
	}
	return s
}
