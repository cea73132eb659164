package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"evonft/internal/evolution/engine"
)

const maxParallelRuns = 8

func newDigestCmd() *cobra.Command {
	var (
		file string
		runs int
	)
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Replay a scenario several times in parallel and compare digests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1, got %d", runs)
			}
			sc, err := loadScenario(file)
			if err != nil {
				return err
			}
			digest, err := parallelDigest(cmd, sc, runs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%d runs agree)\n", digest, runs)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "scenario YAML file")
	cmd.Flags().IntVar(&runs, "runs", 4, "number of independent replays")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func parallelDigest(cmd *cobra.Command, sc *Scenario, runs int) (string, error) {
	digests := make([]string, runs)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxParallelRuns)
	for i := range runs {
		g.Go(func() error {
			e, _, err := engine.Replay(ctx, sc.commands())
			if err != nil {
				return err
			}
			digests[i], err = e.Digest(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	for i, d := range digests[1:] {
		if d != digests[0] {
			return "", fmt.Errorf("run %d digest %s differs from run 1 digest %s", i+2, d, digests[0])
		}
	}
	return digests[0], nil
}
