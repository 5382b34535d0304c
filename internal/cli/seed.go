package cli

import (
	"errors"
	"fmt"
	"os"

	sharedDatabase "novel-reader/shared/database"

	"github.com/spf13/cobra"
)

type seedOptions struct {
	file   string
	dir    string
	dryRun bool
}

// NewSeedCommand создает команду seed: загрузка графов историй из YAML.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load story graphs from YAML fixtures",
		Long: `Load story graphs from YAML fixtures into PostgreSQL.

Without --file or --dir the built-in sample story is used.
With --dry-run the fixtures are only parsed and validated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "single fixture file")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory with *.yaml fixtures")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate fixtures without writing")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")

	return cmd
}

func loadFixtures(opts *seedOptions) ([]*sharedDatabase.GraphFixture, error) {
	switch {
	case opts.file != "":
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		fixture, err := sharedDatabase.ParseGraphFixture(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.file, err)
		}
		return []*sharedDatabase.GraphFixture{fixture}, nil
	case opts.dir != "":
		return sharedDatabase.LoadGraphFixtures(os.DirFS(opts.dir), ".")
	default:
		return sharedDatabase.LoadGraphFixtures(sharedDatabase.SampleFixtures, "fixtures")
	}
}

func runSeed(cmd *cobra.Command, rootOpts *RootOptions, opts *seedOptions) error {
	fixtures, err := loadFixtures(opts)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		return errors.New("no fixtures found")
	}

	out := cmd.OutOrStdout()
	if opts.dryRun {
		for _, f := range fixtures {
			fmt.Fprintf(out, "ok %s %q pages=%d choices=%d\n", f.Story.ID, f.Story.Title, len(f.Pages), len(f.Choices))
		}
		return nil
	}

	pool, err := rootOpts.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := sharedDatabase.NewPgStoryGraphRepository(pool, rootOpts.logger())
	if err := sharedDatabase.SeedGraphs(cmd.Context(), repo, fixtures); err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded %d stories\n", len(fixtures))
	return nil
}
