package main

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fibertree/internal/config"
	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/snapshot"
)

func snapshotCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		list   bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "snapshot [key]",
		Short: "Show an exported snapshot",
		Long: `Show a snapshot exported by "fibertree serve".

Without a key the newest snapshot is shown. Snapshots are read from the
store configured in the snapshot section of fibertree.json.

Examples:
  fibertree snapshot
  fibertree snapshot --list
  fibertree snapshot cycle-1767323045000000000-0000000003.json --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if list {
				keys, err := store.List(ctx)
				if err != nil {
					return errors.New("E150").Wrap(err).WithDetail("listing snapshots")
				}
				if len(keys) == 0 {
					warn("No snapshots found")
					return nil
				}
				for _, k := range keys {
					fmt.Fprintln(out, k)
				}
				return nil
			}

			var snap snapshot.Snapshot
			if len(args) == 1 {
				snap, err = snapshot.Read(ctx, store, args[0])
			} else {
				snap, err = snapshot.Latest(ctx, store)
			}
			if stderrors.Is(err, snapshot.ErrNotFound) {
				return errors.New("E150").Wrap(err).
					WithDetail("No snapshot found").
					WithSuggestion("Enable snapshot export in fibertree.json and run fibertree serve")
			}
			if err != nil {
				return err
			}

			switch format {
			case "html":
				fmt.Fprintf(out, "<!-- cycle %d (%s) at %s -->\n", snap.Cycle, snap.Trigger, snap.Taken.Format("2006-01-02T15:04:05Z07:00"))
				fmt.Fprintln(out, snap.HTML)
				return nil
			case "json":
				data, err := snapshot.Encode(snap)
				if err != nil {
					return err
				}
				_, err = out.Write(append(data, '\n'))
				return err
			default:
				return errors.Newf(errors.CategoryCLI, "unknown format %q", format).
					WithSuggestion("Use --format html or --format json")
			}
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List stored snapshot keys")
	cmd.Flags().StringVarP(&format, "format", "f", "html", "Output format (html or json)")

	return cmd
}
