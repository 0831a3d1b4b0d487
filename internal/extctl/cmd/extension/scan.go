package extension

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/spf13/cobra"
)

// ScanOptions holds the flags of `extctl ext scan`.
type ScanOptions struct {
	Dir   string
	Local bool

	factory util.Factory
	util.IOStreams
}

// NewCmdScan creates the scan command.
func NewCmdScan(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &ScanOptions{Local: true, factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:     "scan <root>",
		Short:   "Load every extension found under a directory",
		Example: `  extctl ext scan ./extensions`,
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete(args))
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&o.Local, "local", o.Local, "Make a relative directory absolute before sending it")
	return cmd
}

func (o *ScanOptions) Complete(args []string) error {
	o.Dir = args[0]
	if o.Local {
		abs, err := filepath.Abs(o.Dir)
		if err != nil {
			return err
		}
		o.Dir = abs
	}
	return nil
}

func (o *ScanOptions) Run(ctx context.Context) error {
	resp, err := o.factory.AdminClient().Scan(ctx, o.Dir)
	if err != nil {
		return reportFailure(o.IOStreams, err)
	}
	p := util.NewPrinter(o.Out)
	for _, key := range resp.Loaded {
		p.OK("%s", key)
	}
	failed := make([]string, 0, len(resp.Failed))
	for key := range resp.Failed {
		failed = append(failed, key)
	}
	sort.Strings(failed)
	for _, key := range failed {
		p.Failure("%s: %s", key, strings.Join(resp.Failed[key], "; "))
	}
	if len(failed) > 0 {
		return util.ErrExit
	}
	return nil
}
