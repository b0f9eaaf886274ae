package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/internal/core"
	"github.com/drover-cli/drover/internal/parser"
	"github.com/drover-cli/drover/pkg/models"
)

// sourceFlags is the shared --prompt/--file/--plans flag set. Exactly one
// source must be given; commands that only need to locate existing state also
// accept a bare identity argument instead.
type sourceFlags struct {
	prompt string
	file   string
	plans  string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "Free-text prompt describing the work")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Path to a markdown plan file")
	cmd.Flags().StringVar(&f.plans, "plans", "", "Path to a directory of markdown plan files")
}

func (f *sourceFlags) count() int {
	n := 0
	for _, v := range []string{f.prompt, f.file, f.plans} {
		if v != "" {
			n++
		}
	}
	return n
}

// descriptor validates the flag set and returns the source descriptor.
func (f *sourceFlags) descriptor() (core.SourceDescriptor, error) {
	switch f.count() {
	case 0:
		return core.SourceDescriptor{}, fmt.Errorf("no input source: provide --prompt, --file, or --plans")
	case 1:
	default:
		return core.SourceDescriptor{}, fmt.Errorf("conflicting input sources: provide exactly one of --prompt, --file, --plans")
	}

	switch {
	case f.prompt != "":
		return core.PromptSource(f.prompt), nil
	case f.file != "":
		if err := mustExist(f.file, false); err != nil {
			return core.SourceDescriptor{}, err
		}
		return core.PathSource(f.file), nil
	default:
		if err := mustExist(f.plans, true); err != nil {
			return core.SourceDescriptor{}, err
		}
		return core.PathSource(f.plans), nil
	}
}

// identity resolves the identity for the flag set.
func (f *sourceFlags) identity() (string, error) {
	desc, err := f.descriptor()
	if err != nil {
		return "", err
	}
	return core.ResolveIdentity(desc)
}

// parse builds a fresh project tree from the flagged input.
func (f *sourceFlags) parse() (*models.Project, error) {
	switch {
	case f.prompt != "":
		return parser.ProjectFromPrompt(f.prompt), nil
	case f.file != "":
		return parser.ParseFile(f.file)
	case f.plans != "":
		return parser.ParseDirectory(f.plans)
	default:
		return nil, fmt.Errorf("no input source: provide --prompt, --file, or --plans")
	}
}

func mustExist(path string, wantDir bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input path %s: %w", path, err)
	}
	if wantDir && !info.IsDir() {
		return fmt.Errorf("input path %s: not a directory", path)
	}
	if !wantDir && info.IsDir() {
		return fmt.Errorf("input path %s: is a directory, use --plans", path)
	}
	return nil
}

// resolveTarget resolves the identity for commands that inspect existing
// state: a bare identity argument wins, otherwise the source flags are used.
func resolveTarget(args []string, flags *sourceFlags) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if flags.count() == 0 {
		return "", fmt.Errorf("provide a project identity or one of --prompt, --file, --plans")
	}
	return flags.identity()
}
