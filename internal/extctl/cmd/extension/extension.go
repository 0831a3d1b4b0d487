// Package extension holds the commands that manage extensions on a running
// hivemind host through its admin API.
package extension

import (
	"fmt"
	"io"
	"strings"

	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/pkg/utils/json"
	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// NewCmdExtension creates the `extctl ext` command group.
func NewCmdExtension(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ext",
		Aliases: []string{"extension", "extensions"},
		Short:   "Manage the extensions of a running host",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(
		NewCmdList(f, ioStreams),
		NewCmdGet(f, ioStreams),
		NewCmdLoad(f, ioStreams),
		NewCmdScan(f, ioStreams),
		NewCmdUnload(f, ioStreams),
		NewCmdReload(f, ioStreams),
	)
	return cmd
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", *output, "Output format: table or json")
}

func validateOutput(output string) error {
	switch output {
	case outputTable, outputJSON:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (want %s or %s)", output, outputTable, outputJSON)
}

func printJSON(w io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func printWarnings(p *util.Printer, warnings []string) {
	for _, w := range warnings {
		p.Warning("%s", w)
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
