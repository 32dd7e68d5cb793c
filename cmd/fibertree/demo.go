package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fibertree/internal/config"
	"github.com/vango-dev/fibertree/internal/demo"
	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/fiber"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/idle"
)

func demoCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		list   bool
		format string
		clicks []string
		units  int
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "demo [name]",
		Short: "Render a demo component and print the committed tree",
		Long: `Render a demo component into an in-memory host and print the result.

Clicks are dispatched in order after the first render, each followed by
the update cycle it triggers. With --units the render phase is driven in
slices of that many work units, which shows how cycles are split up.

Examples:
  fibertree demo counter
  fibertree demo counter --click inc --click inc
  fibertree demo todo --units 2 --stats
  fibertree demo --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, name := range demo.Names() {
					d, _ := demo.Lookup(name)
					fmt.Fprintf(out, "%-10s %s\n", d.Name, d.Description)
				}
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			name := cfg.Server.Demo
			if len(args) == 1 {
				name = args[0]
			}
			d, err := demo.Lookup(name)
			if err != nil {
				return err
			}

			res, err := runDemo(d, demoRun{
				Clicks: clicks,
				Units:  units,
				Logger: newLogger(cfg),
			})
			if err != nil {
				return err
			}
			if stats {
				printStats(cmd.ErrOrStderr(), res.Cycles)
			}
			return printTree(out, res.Memory, format)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the available demos")
	cmd.Flags().StringVarP(&format, "format", "f", "html", "Output format (html or json)")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "Click the element with this id (repeatable)")
	cmd.Flags().IntVarP(&units, "units", "u", 0, "Work units per slice (0 renders each cycle in one slice)")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print cycle statistics to stderr")

	return cmd
}

// demoRun describes one scripted demo session.
type demoRun struct {
	Clicks []string
	Units  int
	Logger *slog.Logger
}

// demoResult is the host tree after the session and the cycles it committed.
type demoResult struct {
	Memory *host.Memory
	Cycles []*fiber.Cycle
}

// runDemo mounts d into a fresh in-memory host, then replays the clicks.
func runDemo(d demo.Demo, run demoRun) (*demoResult, error) {
	mem := host.NewMemory()
	slicer := idle.NewManual()
	res := &demoResult{Memory: mem}

	var failed error
	record := fiber.ObserverFunc(func(c *fiber.Cycle) {
		res.Cycles = append(res.Cycles, c)
		if err := c.Err(); err != nil && !errors.HasCode(err, "E110") {
			failed = err
		}
	})
	s := fiber.NewScheduler(mem, mem.Root(), slicer,
		fiber.WithLogger(run.Logger),
		fiber.WithObserver(record),
	)

	drive := func() error {
		if run.Units > 0 {
			for slicer.Pending() > 0 {
				slicer.Step(run.Units)
			}
		} else {
			slicer.Drain()
		}
		return failed
	}

	s.Render(d.Tree())
	if err := drive(); err != nil {
		return nil, err
	}
	for _, id := range run.Clicks {
		n := mem.Root().ByAttr("id", id)
		if n == nil {
			return nil, errors.Newf(errors.CategoryCLI, "no element with id %q", id).
				WithSuggestion("Run without --click to see the rendered element ids")
		}
		if mem.Dispatch(n, "click", "") == 0 {
			return nil, errors.Newf(errors.CategoryCLI, "element %q has no click listener", id)
		}
		if err := drive(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func printTree(w io.Writer, mem *host.Memory, format string) error {
	switch format {
	case "html":
		_, err := fmt.Fprintln(w, mem.HTML())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(mem.Root().Snapshot())
	default:
		return errors.Newf(errors.CategoryCLI, "unknown format %q", format).
			WithSuggestion("Use --format html or --format json")
	}
}

func printStats(w io.Writer, cycles []*fiber.Cycle) {
	for _, c := range cycles {
		st := c.Stats()
		status := "committed"
		if err := c.Err(); err != nil {
			status = "abandoned"
			if !errors.HasCode(err, "E110") {
				status = "failed"
			}
		}
		fmt.Fprintf(w, "cycle %d %-8s %-9s units=%d slices=%d placed=%d updated=%d deleted=%d\n",
			c.ID(), c.Trigger(), status, st.Units, st.Slices, st.Placed, st.Updated, st.Deleted)
	}
}
