package extension

import (
	"context"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/spf13/cobra"
)

// ListOptions holds the flags of `extctl ext list`.
type ListOptions struct {
	Output string

	factory util.Factory
	util.IOStreams
}

// NewCmdList creates the list command.
func NewCmdList(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &ListOptions{Output: outputTable, factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List loaded extensions",
		Example: heredoc.Doc(`
			extctl ext list
			extctl ext list -o json --server=http://10.0.0.5:11789
		`),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(validateOutput(o.Output))
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	addOutputFlag(cmd, &o.Output)
	return cmd
}

func (o *ListOptions) Run(ctx context.Context) error {
	exts, err := o.factory.AdminClient().List(ctx)
	if err != nil {
		return err
	}
	if o.Output == outputJSON {
		return printJSON(o.Out, exts)
	}

	p := util.NewPrinter(o.Out)
	if len(exts) == 0 {
		p.Warning("no extensions loaded")
		return nil
	}
	rows := [][]interface{}{{"ID", "NAME", "VERSION", "STATUS", "SOURCE", "LOADED AT"}}
	for _, e := range exts {
		rows = append(rows, []interface{}{e.ID, e.Name, e.Version, e.Status, e.Source, e.LoadedAt})
	}
	p.Table(rows...)
	return nil
}
