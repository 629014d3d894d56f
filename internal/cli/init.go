package cli

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailshot/internal/config"
)

//go:embed templates
var starterFiles embed.FS

var starterTargets = map[string]string{
	"templates/campaign.html": config.DefaultTemplateFile,
	"templates/mailshot.yaml": config.DefaultConfigFile,
}

func newInitCommand(_ *state) *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file and campaign template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			written, err := writeStarterFiles(dir, force)
			for _, path := range written {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the files to")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func writeStarterFiles(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	var errs []error
	for _, src := range []string{"templates/mailshot.yaml", "templates/campaign.html"} {
		target := filepath.Join(dir, starterTargets[src])
		if !force {
			if _, err := os.Stat(target); err == nil {
				errs = append(errs, fmt.Errorf("%s already exists, use --force to overwrite", target))
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
				continue
			}
		}

		content, err := starterFiles.ReadFile(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, target)
	}
	return written, errors.Join(errs...)
}
