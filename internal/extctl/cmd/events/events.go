// Package events holds the commands that dispatch and follow extension
// lifecycle events on a running host.
package events

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/pkg/utils/json"
	"github.com/spf13/cobra"
)

const timeLayout = "15:04:05.000"

// TailOptions holds the flags of `extctl events`.
type TailOptions struct {
	Extension string
	Count     int
	ShowData  bool

	factory util.Factory
	util.IOStreams
}

// NewCmdEvents creates the events command.
func NewCmdEvents(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &TailOptions{ShowData: true, factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow lifecycle events as the host dispatches them",
		Long: heredoc.Doc(`
			Stream lifecycle events from the host until interrupted, one line per
			event: time, event, extension id and dispatch id.
		`),
		Example: heredoc.Doc(`
			# Everything
			extctl events

			# One extension, stop after the first three events
			extctl events --extension=@acme/weather --count=3
		`),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Validate())
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&o.Extension, "extension", o.Extension, "Only show events of this extension")
	cmd.Flags().IntVar(&o.Count, "count", o.Count, "Exit after this many events (0 follows forever)")
	cmd.Flags().BoolVar(&o.ShowData, "data", o.ShowData, "Print the event payload")
	return cmd
}

func (o *TailOptions) Validate() error {
	if o.Count < 0 {
		return fmt.Errorf("--count must not be negative")
	}
	return nil
}

func (o *TailOptions) Run(ctx context.Context) error {
	_, tty := util.TerminalWidth(o.Out)
	name := color.New(color.FgCyan, color.Bold)
	if tty {
		name.EnableColor()
	} else {
		name.DisableColor()
	}

	seen := 0
	return o.factory.AdminClient().Events(ctx, o.Extension, func(event string, ev *hooks.Context) bool {
		if ev == nil {
			if event == "ready" {
				fmt.Fprintln(o.ErrOut, "waiting for events...")
			}
			return true
		}
		line := fmt.Sprintf("%s  %s  %s  %s",
			ev.Timestamp.Local().Format(timeLayout), name.Sprint(event), ev.ExtensionID, ev.DispatchID)
		if o.ShowData && len(ev.Data) > 0 {
			if raw, err := json.Marshal(ev.Data); err == nil {
				line += "  " + string(raw)
			}
		}
		fmt.Fprintln(o.Out, line)
		seen++
		return o.Count == 0 || seen < o.Count
	})
}
