package pipeline

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxReasonWidth keeps long error chains from blowing up the table.
const maxReasonWidth = 80

// Render writes the run report: counts per kind, then every file needing
// attention with its cause.
func (s *Summary) Render(w io.Writer) error {
	counts := table.NewWriter()
	counts.SetStyle(table.StyleRounded)
	counts.AppendHeader(table.Row{"Outcome", "Files"})
	tagged := s.CountAlreadyTagged()
	for _, k := range Kinds {
		n := s.Count(k)
		if k == KindSkipped {
			n -= tagged
		}
		counts.AppendRow(table.Row{k.String(), n})
		if k == KindSkipped {
			counts.AppendRow(table.Row{"already-tagged", tagged})
		}
	}
	counts.AppendFooter(table.Row{"total", len(s.Outcomes)})
	counts.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	if _, err := fmt.Fprintln(w, counts.Render()); err != nil {
		return err
	}

	switch {
	case s.Stopped:
		_, _ = fmt.Fprintf(w, "Stopped by user, %d file(s) not processed.\n", s.Remaining)
	case s.Interrupted:
		_, _ = fmt.Fprintf(w, "Interrupted, %d file(s) not processed.\n", s.Remaining)
	}

	attention := s.Attention()
	if len(attention) == 0 {
		return nil
	}

	list := table.NewWriter()
	list.SetStyle(table.StyleRounded)
	list.SetTitle("Files requiring attention")
	list.AppendHeader(table.Row{"#", "File", "Outcome", "Cause"})
	for i, o := range attention {
		list.AppendRow(table.Row{strconv.Itoa(i + 1), s.DisplayPath(o.Path), o.Kind.String(), o.Reason})
	}
	list.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, WidthMax: maxReasonWidth},
	})
	_, err := fmt.Fprintln(w, list.Render())
	return err
}
