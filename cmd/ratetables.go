package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/labstack/gommon/color"
	"github.com/spf13/cobra"
)

func newRateTablesCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rate-tables",
		Aliases: []string{"rt"},
		Short:   "List, edit, post and delete rate table series",
	}

	cmd.AddCommand(
		newRateTablesListCmd(g),
		newRateTablesShowCmd(g),
		newRateTablesPostCmd(g),
		newRateTablesDeleteCmd(g),
		newRateTablesBumpCmd(),
		newRateTablesRestampCmd(g),
		newRateTablesNamesCmd(g),
	)

	return cmd
}

func newRateTablesListCmd(g *globalFlags) *cobra.Command {
	var filtered, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch rate tables and refresh the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.editor.LoadRateTables(cmd.Context(), a.sess, filtered)
			if err != nil {
				return err
			}

			if res.FromCache {
				warn(cmd, "licensing service unreachable, showing the cached list")
			}
			if res.Example {
				warn(cmd, "no rate tables exist, loaded an example rate table")
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "    ")
				return enc.Encode(res.Listings)
			}

			t := newTable(cmd.OutOrStdout(), "SERIES", "VERSION", "EFFECTIVE FROM", "CREATED", "ITEMS")
			for _, l := range res.Listings {
				t.Append([]string{l.Series, l.Version, l.EffectiveFrom, l.Created, fmt.Sprint(len(l.Items))})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&filtered, "filtered", false, "show only current/future series and the latest historic version of each")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

func newRateTablesShowCmd(g *globalFlags) *cobra.Command {
	var (
		forEdit bool
		out     string
	)

	cmd := &cobra.Command{
		Use:   "show SERIES VERSION",
		Short: "Render one series version as an editable text block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			render := a.editor.RenderRateTable
			if forEdit {
				render = a.editor.EditorBlock
			}

			block, err := render(cmd.Context(), a.sess, args[0], args[1])
			if err != nil {
				return err
			}
			return writeBlock(cmd, out, block)
		},
	}

	cmd.Flags().BoolVar(&forEdit, "edit", false, "drop Created Date and the separator so the block can be posted as a new version")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the block to a file instead of stdout")

	return cmd
}

func newRateTablesPostCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "post FILE",
		Short: "Post an edited text block as a new series version (FILE may be -)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := readBlock(cmd, args[0])
			if err != nil {
				return err
			}

			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			posted, err := a.editor.PostRateTable(cmd.Context(), a.sess, block)
			if err != nil {
				return err
			}

			for _, line := range posted.Dropped {
				warn(cmd, "ignored item line %q", line)
			}
			success(cmd, "Rate Table %s v%s posted successfully (%d items)",
				posted.Series.Series, posted.Series.Version, len(posted.Series.Items))
			return nil
		},
	}
}

func newRateTablesDeleteCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete SERIES VERSION",
		Short: "Delete a series version that is not yet in effect",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := confirm(cmd, yes, "Delete rate table %s v%s in %s?", args[0], args[1], a.sess.Env); err != nil {
				return err
			}

			if err := a.editor.DeleteRateTable(cmd.Context(), a.sess, args[0], args[1]); err != nil {
				return err
			}
			success(cmd, "Rate table deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func newRateTablesBumpCmd() *cobra.Command {
	var inPlace bool

	cmd := &cobra.Command{
		Use:   "bump FILE",
		Short: "Increment the Series Version of a text block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := readBlock(cmd, args[0])
			if err != nil {
				return err
			}

			// bump needs no config or network
			svc := blockEditor()
			out, err := svc.Bump(block)
			if err != nil {
				return err
			}
			return writeBlock(cmd, target(inPlace, args[0]), out)
		},
	}

	cmd.Flags().BoolVarP(&inPlace, "write", "w", false, "rewrite FILE instead of printing")

	return cmd
}

func newRateTablesRestampCmd(g *globalFlags) *cobra.Command {
	var (
		inPlace bool
		date    string
	)

	cmd := &cobra.Command{
		Use:   "restamp FILE",
		Short: "Set the Start Date of a text block (today by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := readBlock(cmd, args[0])
			if err != nil {
				return err
			}

			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			var at time.Time
			if date != "" {
				at, err = time.ParseInLocation(dateconv.DateLayout, date, a.editor.Dates().Location())
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			out, err := a.editor.Restamp(block, at)
			if err != nil {
				return err
			}
			return writeBlock(cmd, target(inPlace, args[0]), out)
		},
	}

	cmd.Flags().BoolVarP(&inPlace, "write", "w", false, "rewrite FILE instead of printing")
	cmd.Flags().StringVar(&date, "date", "", "start date, YYYY-MM-DD")

	return cmd
}

func newRateTablesNamesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List distinct series names usable for entitlements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.editor.RateTableNames(cmd.Context(), a.sess)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), color.Bold(n))
			}
			return nil
		},
	}
}

func target(inPlace bool, path string) string {
	if inPlace && path != "-" {
		return path
	}
	return ""
}
