package events

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/pkg/utils/json"
	"github.com/spf13/cobra"
)

// EmitOptions holds the flags of `extctl emit`.
type EmitOptions struct {
	ID       string
	Event    string
	Set      []string
	DataJSON string

	data map[string]interface{}

	factory util.Factory
	util.IOStreams
}

// NewCmdEmit creates the emit command.
func NewCmdEmit(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &EmitOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:   "emit <id> <event>",
		Short: "Dispatch a lifecycle event to an extension's hooks",
		Long: heredoc.Docf(`
			Dispatch a lifecycle event to the hooks one extension registered.
			The "extension:" prefix of the event name may be omitted.

			Known events: %s
		`, eventNames()),
		Example: heredoc.Doc(`
			extctl emit @acme/weather enable
			extctl emit @acme/weather extension:configChange --set units=metric --set refresh=60
			extctl emit @acme/weather configChange --data '{"units":"metric"}'
		`),
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete(args))
			util.CheckErr(o.Validate())
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	cmd.Flags().StringArrayVar(&o.Set, "set", o.Set, "Event data as key=value, repeatable")
	cmd.Flags().StringVar(&o.DataJSON, "data", o.DataJSON, "Event data as a JSON object")
	return cmd
}

func (o *EmitOptions) Complete(args []string) error {
	o.ID = args[0]
	o.Event = args[1]
	if !strings.Contains(o.Event, ":") {
		o.Event = "extension:" + o.Event
	}

	if o.DataJSON != "" {
		if err := json.Unmarshal([]byte(o.DataJSON), &o.data); err != nil {
			return fmt.Errorf("--data is not a JSON object: %w", err)
		}
	}
	for _, kv := range o.Set {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("--set %q: expected key=value", kv)
		}
		if o.data == nil {
			o.data = make(map[string]interface{})
		}
		o.data[k] = v
	}
	return nil
}

func (o *EmitOptions) Validate() error {
	if !slices.Contains(hooks.Events, hooks.Event(o.Event)) {
		return fmt.Errorf("unknown event %q (known: %s)", o.Event, eventNames())
	}
	return nil
}

func (o *EmitOptions) Run(ctx context.Context) error {
	if err := o.factory.AdminClient().Emit(ctx, o.ID, o.Event, o.data); err != nil {
		return err
	}
	util.NewPrinter(o.Out).OK("%s dispatched to %s", o.Event, o.ID)
	return nil
}

func eventNames() string {
	names := make([]string, 0, len(hooks.Events))
	for _, e := range hooks.Events {
		names = append(names, string(e))
	}
	return strings.Join(names, ", ")
}
