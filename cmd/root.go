package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/labstack/gommon/color"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	cfgPath string
	profile string
	env     string
	noColor bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "dmtool",
		Short:         "Dynamic Monetization rate table and entitlement editor",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				color.Disable()
			}
		},
	}

	root.PersistentFlags().StringVar(&g.cfgPath, "config", "dmtool.yaml", "path to YAML config file")
	root.PersistentFlags().StringVar(&g.profile, "profile", "", "named profile from the config file's profiles section")
	root.PersistentFlags().StringVar(&g.env, "env", "", "target environment: prod or uat (overrides config)")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRateTablesCmd(g))
	root.AddCommand(newCustomersCmd(g))
	root.AddCommand(newLineItemsCmd(g))
	root.AddCommand(newServeCmd(g))

	return root
}

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, color.Red("Error: ")+apperr.UserMessage(err))
}

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")
