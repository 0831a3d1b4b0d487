package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/service"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/spf13/cobra"
)

// Options holds the flags of `extctl deps`.
type Options struct {
	Root string

	util.IOStreams
}

// Problem is one dependency issue found under the root.
type Problem struct {
	Extension string
	Err       *entity.DependencyError
}

// Report is the result of analysing every extension under a root.
type Report struct {
	Order    []*manifest.Manifest
	Problems []Problem
	// Unparsable maps directory name to its parse errors.
	Unparsable map[string][]string
}

// NewCmdDeps creates the deps command.
func NewCmdDeps(ioStreams util.IOStreams) *cobra.Command {
	o := &Options{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "deps <root>",
		DisableFlagsInUseLine: true,
		Short:                 "Show the load order of the extensions under a directory",
		Long: heredoc.Doc(`
			Read the manifest of every subdirectory of <root> and print the order
			the host loads them in, dependencies first.

			Missing dependencies, unsatisfied version ranges and cycles are
			reported as they would be at load time, treating every other
			extension under <root> as already loaded.
		`),
		Example: heredoc.Doc(`
			extctl deps ./extensions
		`),
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete(args))
			util.CheckErr(o.Run())
		},
	}
	return cmd
}

func (o *Options) Complete(args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	o.Root = root
	return nil
}

func (o *Options) Run() error {
	report, err := Analyse(o.Root)
	if err != nil {
		return err
	}
	p := util.NewPrinter(o.Out)

	rows := [][]interface{}{{"#", "ID", "VERSION", "DEPENDS ON"}}
	for i, m := range report.Order {
		rows = append(rows, []interface{}{i + 1, m.ID, m.Version, strings.Join(m.Dependencies, ", ")})
	}
	p.Table(rows...)

	dirs := make([]string, 0, len(report.Unparsable))
	for dir := range report.Unparsable {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		p.Failure("%s: %s", dir, strings.Join(report.Unparsable[dir], "; "))
	}
	for _, prob := range report.Problems {
		p.Failure("%s: %s", prob.Extension, prob.Err.Message)
	}
	if len(report.Problems) > 0 || len(report.Unparsable) > 0 {
		return util.ErrExit
	}
	p.OK("%d extension(s), no dependency problems", len(report.Order))
	return nil
}

// Analyse parses every extension directory under root and resolves their
// dependencies against each other.
func Analyse(root string) (*Report, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	report := &Report{Unparsable: make(map[string][]string)}
	var manifests []*manifest.Manifest
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := manifest.FindFile(dir); err != nil {
			continue
		}
		res := manifest.ParseFromDirectory(dir)
		if !res.Success {
			report.Unparsable[e.Name()] = res.Errors
			continue
		}
		manifests = append(manifests, res.Manifest)
	}

	all := make(map[string]*entity.LoadedExtension, len(manifests))
	for _, m := range manifests {
		all[m.ID] = &entity.LoadedExtension{ID: m.ID, Manifest: m, Status: entity.StatusActive}
	}

	report.Order = service.LoadOrder(manifests)
	seenCycle := make(map[string]bool)
	for _, m := range report.Order {
		_, errs := service.ResolveDependencies(m, all, nil)
		for _, e := range errs {
			// A cycle is reported once, by the first member in load order.
			if e.Kind == entity.DependencyCircular {
				if seenCycle[e.Dependency] {
					continue
				}
				seenCycle[e.Dependency] = true
				for _, id := range strings.Split(strings.TrimPrefix(e.Message, "circular dependency: "), " -> ") {
					seenCycle[id] = true
				}
			}
			report.Problems = append(report.Problems, Problem{Extension: m.ID, Err: e})
		}
	}
	return report, nil
}
