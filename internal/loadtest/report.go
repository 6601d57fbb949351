package loadtest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
)

// WriteSummary renders the outcome as a header block and a per-user table.
func WriteSummary(w io.Writer, out *Outcome) error {
	verdict := "scenarios of all users finished successfully"
	if !out.Success() {
		verdict = "scenarios of some users failed"
	}
	if _, err := fmt.Fprintf(w,
		"run:        %s\nverdict:    %s\nusers:      %d\niterations: %d\ntimeout:    %s\nelapsed:    %s\nsucceeded:  %d\nfailed:     %d\npending:    %d\n\n",
		out.RunID, verdict, out.Users, out.Iterations, timeoutText(out.Timeout), out.Elapsed.Round(1e6),
		out.Succeeded(), out.Failed(), out.Pending(),
	); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"User", "Outcome", "Log", "Error"})
	table.SetAutoWrapText(false)
	for _, r := range out.Results {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		table.Append([]string{r.Identifier, r.State.String(), filepath.Base(r.LogFile), msg})
	}
	table.Render()
	return nil
}

func writeSummaryFile(path string, out *Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSummary(f, out); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
