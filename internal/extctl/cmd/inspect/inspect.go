package inspect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/glamour"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/spf13/cobra"
)

// readmeNames are tried in order next to the manifest.
var readmeNames = []string{"README.md", "readme.md", "README"}

// Options holds the flags of `extctl inspect`.
type Options struct {
	Dir      string
	NoReadme bool
	Style    string

	util.IOStreams
}

// NewCmdInspect creates the inspect command.
func NewCmdInspect(ioStreams util.IOStreams) *cobra.Command {
	o := &Options{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "inspect <dir>",
		DisableFlagsInUseLine: true,
		Short:                 "Show what an extension declares",
		Long: heredoc.Doc(`
			Print the metadata, components and hooks declared by an extension
			manifest, followed by the extension README rendered for the terminal.
		`),
		Example: heredoc.Doc(`
			extctl inspect ./extensions/weather
			extctl inspect ./extensions/weather --no-readme
		`),
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete(args))
			util.CheckErr(o.Run())
		},
	}

	cmd.Flags().BoolVar(&o.NoReadme, "no-readme", o.NoReadme, "Do not render the README")
	cmd.Flags().StringVar(&o.Style, "style", o.Style, "Glamour style for the README (dark, light, notty); detected when empty")
	return cmd
}

func (o *Options) Complete(args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	o.Dir = dir
	if o.Style == "" {
		o.Style = "notty"
		if _, tty := util.TerminalWidth(o.Out); tty {
			o.Style = "dark"
		}
	}
	return nil
}

func (o *Options) Run() error {
	res := manifest.ParseFromDirectory(o.Dir)
	if !res.Success {
		p := util.NewPrinter(o.Out)
		for _, e := range res.Errors {
			p.Failure("%s", e)
		}
		return util.ErrExit
	}
	m := res.Manifest
	p := util.NewPrinter(o.Out)

	p.Title("%s %s", m.ID, m.Version)
	meta := [][]interface{}{{"FIELD", "VALUE"}, {"name", m.Name}}
	addMeta := func(k, v string) {
		if v != "" {
			meta = append(meta, []interface{}{k, v})
		}
	}
	addMeta("description", m.Description)
	addMeta("category", m.Category)
	addMeta("runtime", m.Runtime)
	addMeta("nubabelVersion", m.NubabelVersion)
	if m.Author != nil {
		addMeta("author", strings.TrimSpace(m.Author.Name+" "+angle(m.Author.Email)))
	}
	addMeta("dependencies", strings.Join(m.Dependencies, ", "))
	addMeta("permissions", strings.Join(m.Permissions, ", "))
	addMeta("tags", strings.Join(m.Tags, ", "))
	p.Table(meta...)

	if rows := componentRows(m); len(rows) > 1 {
		fmt.Fprintln(o.Out)
		p.Table(rows...)
	}

	if declared := m.Hooks.Declared(); len(declared) > 0 {
		fmt.Fprintln(o.Out)
		rows := [][]interface{}{{"HOOK", "HANDLER"}}
		for _, slot := range manifest.HookSlots {
			if h, ok := declared[slot]; ok {
				rows = append(rows, []interface{}{slot, h})
			}
		}
		p.Table(rows...)
	}

	if o.NoReadme {
		return nil
	}
	readme, ok := findReadme(o.Dir)
	if !ok {
		return nil
	}
	fmt.Fprintln(o.Out)
	fmt.Fprint(o.Out, o.render(readme, p.Width()))
	return nil
}

func componentRows(m *manifest.Manifest) [][]interface{} {
	rows := [][]interface{}{{"KIND", "ID", "PATH"}}
	c := m.Components
	for _, a := range c.Agents {
		rows = append(rows, []interface{}{"agent", a.ID, a.ConfigPath})
	}
	for _, s := range c.Skills {
		rows = append(rows, []interface{}{"skill", s.ID, s.ConfigPath})
	}
	for _, t := range c.MCPTools {
		rows = append(rows, []interface{}{"mcpTool", t.ID, t.Handler})
	}
	for _, w := range c.Workflows {
		rows = append(rows, []interface{}{"workflow", w.ID, w.ConfigPath})
	}
	for _, u := range c.UIComponents {
		rows = append(rows, []interface{}{"uiComponent", u.ID, u.ComponentPath})
	}
	for _, r := range c.Routes {
		method := r.Method
		if method == "" {
			method = "GET"
		}
		rows = append(rows, []interface{}{"route", method + " " + r.Path, r.Handler})
	}
	return rows
}

func findReadme(dir string) (string, bool) {
	for _, name := range readmeNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), true
		}
	}
	return "", false
}

// render falls back to the raw markdown when glamour cannot render it.
func (o *Options) render(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(o.Style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

func angle(s string) string {
	if s == "" {
		return ""
	}
	return "<" + s + ">"
}
