package extension

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	v1 "github.com/kiosk404/nubabel/internal/hivemind/handler/v1"
	"github.com/spf13/cobra"
)

// LoadOptions holds the flags of `extctl ext load`.
type LoadOptions struct {
	Path    string
	Package string
	// Local resolves Path against the working directory before sending it.
	Local bool

	factory util.Factory
	util.IOStreams
}

// NewCmdLoad creates the load command.
func NewCmdLoad(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &LoadOptions{Local: true, factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:   "load [dir]",
		Short: "Load an extension from a directory or a package",
		Long: heredoc.Doc(`
			Ask the host to load an extension. The directory is read by the host,
			so it must be visible on the host's filesystem.
		`),
		Example: heredoc.Doc(`
			# Load a directory
			extctl ext load ./extensions/weather

			# Load a package found under the host's package paths
			extctl ext load --package=@acme/weather
		`),
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete(cmd, args))
			util.CheckErr(o.Validate(cmd))
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&o.Package, "package", o.Package, "Package name to resolve on the host instead of a directory")
	cmd.Flags().BoolVar(&o.Local, "local", o.Local, "Make a relative directory absolute before sending it")
	return cmd
}

func (o *LoadOptions) Complete(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		o.Path = args[0]
	}
	if o.Path != "" && o.Local {
		abs, err := filepath.Abs(o.Path)
		if err != nil {
			return err
		}
		o.Path = abs
	}
	return nil
}

func (o *LoadOptions) Validate(cmd *cobra.Command) error {
	if (o.Path == "") == (o.Package == "") {
		return util.UsageErrorf(cmd, "exactly one of a directory argument and --package is required")
	}
	return nil
}

func (o *LoadOptions) Run(ctx context.Context) error {
	resp, err := o.factory.AdminClient().Load(ctx, v1.LoadExtensionRequest{Path: o.Path, Package: o.Package})
	if err != nil {
		return reportFailure(o.IOStreams, err)
	}
	p := util.NewPrinter(o.Out)
	printWarnings(p, resp.Warnings)
	p.OK("loaded %s %s (%s)", resp.Extension.ID, resp.Extension.Version, resp.Extension.Source)
	return nil
}

// reportFailure prints each server-side error on its own line so that long
// validation reports stay readable.
func reportFailure(s util.IOStreams, err error) error {
	var apiErr *util.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) <= 1 {
		return err
	}
	p := util.NewPrinter(s.ErrOut)
	for _, e := range apiErr.Errors {
		p.Failure("%s", e)
	}
	printWarnings(p, apiErr.Warnings)
	fmt.Fprintf(s.ErrOut, "%s (HTTP %d)\n", apiErr.Message, apiErr.Status)
	return util.ErrExit
}
