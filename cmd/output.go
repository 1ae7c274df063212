package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetBorder(false)
	t.SetColumnSeparator("")
	t.SetHeaderLine(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	return t
}

func success(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), color.Green(fmt.Sprintf(format, a...)))
}

func warn(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintln(cmd.ErrOrStderr(), color.Yellow("Warning: ")+fmt.Sprintf(format, a...))
}

// confirm asks a yes/no question on the command's input unless assumeYes.
func confirm(cmd *cobra.Command, assumeYes bool, format string, a ...any) error {
	if assumeYes {
		return nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", fmt.Sprintf(format, a...))
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

// readBlock reads a text block from path, or from the command's input when
// path is "-".
func readBlock(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

// writeBlock writes block to path, or to the command's output when path is
// empty or "-".
func writeBlock(cmd *cobra.Command, path, block string) error {
	if !strings.HasSuffix(block, "\n") {
		block += "\n"
	}

	if path == "" || path == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), block)
		return err
	}

	if err := os.WriteFile(path, []byte(block), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
