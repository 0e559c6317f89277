package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/llehouerou/tagwiz/internal/config"
	"github.com/llehouerou/tagwiz/internal/deps"
	"github.com/llehouerou/tagwiz/internal/errmsg"
)

func newCheckCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the external tools and credentials are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpConfigLoad, err))
			}

			statuses := deps.CheckBinaries([]deps.Requirement{deps.Fpcalc(cfg.GetFpcalcConfig().Path)})
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStatuses(statuses))

			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out, errmsg.Format(errmsg.OpConfigValidate, err))
			} else {
				fmt.Fprintln(out, "Credentials: configured")
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}

func renderStatuses(statuses []deps.Status) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Tool", "Command", "Status", "Detail"})
	for _, s := range statuses {
		status := text.FgGreen.Sprint("ok")
		detail := s.Path
		if !s.Available {
			status = text.FgRed.Sprint("missing")
			detail = s.Detail
		}
		tw.AppendRow(table.Row{s.Name, s.Command, status, detail})
	}
	return tw.Render()
}
