package versioncheck

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/spf13/cobra"
)

// Options holds the arguments of `extctl version-check`.
type Options struct {
	Requirement string
	Version     string

	util.IOStreams
}

// NewCmdVersionCheck creates the version-check command.
func NewCmdVersionCheck(ioStreams util.IOStreams) *cobra.Command {
	o := &Options{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "version-check <requirement> <version>",
		DisableFlagsInUseLine: true,
		Short:                 "Check whether a version satisfies a requirement",
		Long: heredoc.Doc(`
			Evaluate a version requirement the way the host does for
			nubabelVersion and dependency ranges: an exact version, or one
			prefixed with =, >=, >, <=, <, ^ (same major) or ~ (same minor).
		`),
		Example: heredoc.Doc(`
			extctl version-check '^1.2.0' 1.4.3
			extctl version-check '~1.2.0' 1.3.0
		`),
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete(args))
			util.CheckErr(o.Run())
		},
	}
	return cmd
}

func (o *Options) Complete(args []string) error {
	o.Requirement, o.Version = args[0], args[1]
	return nil
}

// Run returns util.ErrExit when the version does not satisfy the requirement.
func (o *Options) Run() error {
	p := util.NewPrinter(o.Out)
	c := manifest.ValidateVersionCompatibility(o.Requirement, o.Version)
	if !c.Compatible {
		p.Failure("%s", c.Message)
		return util.ErrExit
	}
	p.OK("%s satisfies %s", o.Version, o.Requirement)
	return nil
}
