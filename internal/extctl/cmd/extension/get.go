package extension

import (
	"context"
	"fmt"
	"io"

	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	v1 "github.com/kiosk404/nubabel/internal/hivemind/handler/v1"
	"github.com/spf13/cobra"
)

// GetOptions holds the flags of `extctl ext get`.
type GetOptions struct {
	ID     string
	Output string

	factory util.Factory
	util.IOStreams
}

// NewCmdGet creates the get command.
func NewCmdGet(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &GetOptions{Output: outputTable, factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:     "get <id>",
		Short:   "Show one loaded extension",
		Example: `  extctl ext get @acme/weather`,
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.ID = args[0]
			util.CheckErr(validateOutput(o.Output))
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	addOutputFlag(cmd, &o.Output)
	return cmd
}

func (o *GetOptions) Run(ctx context.Context) error {
	ext, err := o.factory.AdminClient().Get(ctx, o.ID)
	if err != nil {
		return err
	}
	if o.Output == outputJSON {
		return printJSON(o.Out, ext)
	}
	printExtension(util.NewPrinter(o.Out), o.Out, ext)
	return nil
}

func printExtension(p *util.Printer, out io.Writer, ext *v1.ExtensionResponse) {
	p.Title("%s %s", ext.ID, ext.Version)
	rows := [][]interface{}{
		{"FIELD", "VALUE"},
		{"name", ext.Name},
		{"status", ext.Status},
		{"source", ext.Source},
		{"path", ext.BasePath},
		{"loaded at", ext.LoadedAt},
		{"dependencies", joinOrDash(ext.Dependencies)},
		{"hooks", joinOrDash(ext.Hooks)},
	}
	if ext.Error != "" {
		rows = append(rows, []interface{}{"error", ext.Error})
	}
	p.Table(rows...)

	comps := [][]interface{}{{"KIND", "ID", "PATH"}}
	for _, a := range ext.Agents {
		comps = append(comps, []interface{}{"agent", a.ID, a.ConfigPath})
	}
	for _, s := range ext.Skills {
		comps = append(comps, []interface{}{"skill", s.ID, s.ConfigPath})
	}
	for _, t := range ext.MCPTools {
		comps = append(comps, []interface{}{"mcpTool", t.ID, t.HandlerPath})
	}
	for _, r := range ext.Routes {
		comps = append(comps, []interface{}{"route", r.Method + " " + r.Path, r.HandlerPath})
	}
	if len(comps) > 1 {
		fmt.Fprintln(out)
		p.Table(comps...)
	}
}
