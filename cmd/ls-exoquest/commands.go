package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/config"
	"github.com/litescript/ls-exoquest/internal/export"
	"github.com/litescript/ls-exoquest/internal/state"
	"github.com/litescript/ls-exoquest/internal/ui"
)

// runTUI starts the interactive explorer.
func runTUI(cmd *cobra.Command, opts *options) error {
	if !isTerminal(os.Stdin) || !isTerminal(cmd.OutOrStdout()) {
		return errors.New("the explorer needs a terminal; use the stars, scene or summary commands for piped output")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, opts.cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	cfg := opts.cfg
	stateMgr := state.NewManager(state.Config{
		Query:   catalog.Query{Page: cfg.Page, Search: cfg.Search},
		Mission: catalog.ParseMission(cfg.Mission),
	})
	defer stateMgr.Cancel()

	model := ui.New(stateMgr, a.client, ui.Options{
		FrameInterval: cfg.FrameInterval(),
		Speed:         cfg.Speed,
		ShowOrbits:    cfg.ShowOrbits,
		ShowLabels:    cfg.ShowLabels,
		Logger:        a.log,
	})

	a.log.Info("starting explorer at page %d", cfg.Page)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run explorer: %w", err)
	}
	return nil
}

// fetchPage runs one catalog request for the configured page and search.
func fetchPage(ctx context.Context, a *app) (catalog.FetchResult, error) {
	q := catalog.Query{Page: a.cfg.Page, Search: a.cfg.Search}
	res := a.client.Fetch(ctx, q)
	if res.Error != nil {
		return res, fmt.Errorf("fetch page %d: %w", res.Query.Page, res.Error)
	}
	if res.Page == nil {
		res.Page = &catalog.Page{Page: res.Query.Page}
	}
	a.log.Debug("fetched page %d: %d stars in %s", res.Page.Page, len(res.Page.Stars), res.Duration)
	return res, nil
}

// resolveFormat picks table output for terminals and JSON for pipes unless a
// format was given.
func resolveFormat(cmd *cobra.Command, name string) (export.Format, error) {
	if name == "" {
		if isTerminal(cmd.OutOrStdout()) {
			return export.FormatTable, nil
		}
		return export.FormatJSON, nil
	}
	return export.ParseFormat(name)
}

func newStarsCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stars",
		Short: "Print one page of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmtOut, err := resolveFormat(cmd, format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			res, err := fetchPage(ctx, a)
			if err != nil {
				return err
			}
			res.Page.Stars = catalog.Filter(res.Page.Stars, "", catalog.ParseMission(opts.cfg.Mission))

			if fmtOut == export.FormatTable {
				export.WriteStarsTable(cmd.OutOrStdout(), res)
				return nil
			}
			return export.Write(cmd.OutOrStdout(), fmtOut, export.ExportPage(res))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "", "output format (table, json, yaml)")
	return cmd
}

func newSceneCmd(opts *options) *cobra.Command {
	var (
		format string
		starID string
	)
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Print the derived render parameters of one system",
		Long: `scene fetches the configured page and prints the orbit radius, body
radius, angular velocity and color derived for every planet of one system.
Without --star the first system on the page is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmtOut, err := resolveFormat(cmd, format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			res, err := fetchPage(ctx, a)
			if err != nil {
				return err
			}

			var star catalog.Star
			switch {
			case starID != "":
				s, ok := res.Page.FindStar(catalog.ID(starID))
				if !ok {
					return fmt.Errorf("system %q is not on page %d", starID, res.Page.Page)
				}
				star = s
			case len(res.Page.Stars) > 0:
				star = res.Page.Stars[0]
			default:
				return fmt.Errorf("page %d has no systems", res.Page.Page)
			}

			sc := export.ExportScene(star)
			if fmtOut == export.FormatTable {
				export.WriteSceneTable(cmd.OutOrStdout(), sc)
				return nil
			}
			return export.Write(cmd.OutOrStdout(), fmtOut, sc)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "", "output format (table, json, yaml)")
	cmd.Flags().StringVar(&starID, "star", "", "system id (default: first on the page)")
	return cmd
}

func newSummaryCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print catalog totals and statistics for one page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmtOut, err := resolveFormat(cmd, format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			res, err := fetchPage(ctx, a)
			if err != nil {
				return err
			}
			sum := catalog.Summarize(catalog.Filter(res.Page.Stars, "", catalog.ParseMission(opts.cfg.Mission)))

			infos, err := a.client.Infos(ctx)
			if err != nil {
				a.log.Warn("catalog totals unavailable: %v", err)
			}
			out := export.ExportSummary(infos, sum)

			if fmtOut == export.FormatTable {
				export.WriteTotalsTable(cmd.OutOrStdout(), out.Catalog)
				export.WriteSummaryTable(cmd.OutOrStdout(), out.Page)
				return nil
			}
			return export.Write(cmd.OutOrStdout(), fmtOut, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "", "output format (table, json, yaml)")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				target = p
			}
			if err := config.Save(opts.cfg, target, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "destination (default is $HOME/"+config.DirName+"/config.yaml)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
