package validate

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/spf13/cobra"
)

var validateExample = heredoc.Doc(`
	# Validate the extension in the current directory
	extctl validate .

	# Only check the manifest, not the files it references
	extctl validate ./weather --skip-paths

	# Also check the extension against the host version it will run on
	extctl validate ./weather --host-version=1.4.0
`)

// Options holds the flags of `extctl validate`.
type Options struct {
	Dir         string
	SkipPaths   bool
	HostVersion string

	util.IOStreams
}

// NewCmdValidate creates the validate command.
func NewCmdValidate(ioStreams util.IOStreams) *cobra.Command {
	o := &Options{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "validate <dir>",
		DisableFlagsInUseLine: true,
		Short:                 "Check an extension manifest and the files it references",
		Long: heredoc.Doc(`
			Parse the manifest of an extension directory, check it against the
			manifest schema and verify that every referenced file exists.

			Errors make the command exit non-zero; warnings are only reported.
		`),
		Example: validateExample,
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete(args))
			util.CheckErr(o.Validate())
			util.CheckErr(o.Run())
		},
	}

	cmd.Flags().BoolVar(&o.SkipPaths, "skip-paths", o.SkipPaths, "Do not check that referenced files exist")
	cmd.Flags().StringVar(&o.HostVersion, "host-version", o.HostVersion, "Check nubabelVersion against this host version")
	return cmd
}

func (o *Options) Complete(args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	o.Dir = dir
	return nil
}

func (o *Options) Validate() error {
	if o.Dir == "" {
		return fmt.Errorf("extension directory is required")
	}
	return nil
}

// Run prints every problem found and returns util.ErrExit when the extension
// would fail to load.
func (o *Options) Run() error {
	p := util.NewPrinter(o.Out)

	res := manifest.ParseFromDirectory(o.Dir)
	errs, warnings := res.Errors, res.Warnings
	if res.Success {
		m := res.Manifest
		p.Title("%s %s (%s)", m.ID, m.Version, o.Dir)
		if !o.SkipPaths {
			pv := manifest.ValidatePaths(m, o.Dir)
			errs = append(errs, pv.Errors...)
			warnings = append(warnings, pv.Warnings...)
		}
		if o.HostVersion != "" && m.NubabelVersion != "" {
			if c := manifest.ValidateVersionCompatibility(m.NubabelVersion, o.HostVersion); !c.Compatible {
				errs = append(errs, c.Message)
			}
		}
	} else {
		p.Title("%s", o.Dir)
	}

	for _, e := range errs {
		p.Failure("%s", e)
	}
	for _, w := range warnings {
		p.Warning("%s", w)
	}
	if len(errs) > 0 {
		fmt.Fprintf(o.ErrOut, "%d error(s), %d warning(s)\n", len(errs), len(warnings))
		return util.ErrExit
	}
	p.OK("manifest is valid (%d warning(s))", len(warnings))
	return nil
}
