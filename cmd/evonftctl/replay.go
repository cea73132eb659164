package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"evonft/internal/evolution/engine"
	dErrors "evonft/pkg/domain-errors"
)

var errUnexpectedOutcome = errors.New("scenario produced unexpected outcomes")

func newReplayCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a scenario file and print every result and the final digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := loadScenario(file)
			if err != nil {
				return err
			}
			return runReplay(cmd, sc)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "scenario YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runReplay(cmd *cobra.Command, sc *Scenario) error {
	out := cmd.OutOrStdout()
	e, steps, err := engine.Replay(cmd.Context(), sc.commands())
	if err != nil {
		return err
	}

	mismatches := 0
	for i, step := range steps {
		want := sc.Steps[i].ExpectError
		got := dErrors.Code("")
		if step.Err != nil {
			got = dErrors.CodeOf(step.Err)
		}
		ok := got == want
		if !ok {
			mismatches++
		}
		printStep(out, i+1, step, want, ok)
	}

	digest, err := e.Digest(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "digest: %s\n", digest)
	if mismatches > 0 {
		return fmt.Errorf("%w: %d of %d steps", errUnexpectedOutcome, mismatches, len(steps))
	}
	return nil
}

func printStep(out io.Writer, n int, step engine.Step, want dErrors.Code, ok bool) {
	mark := "ok"
	if !ok {
		mark = "UNEXPECTED"
	}
	cmd := step.Command
	if step.Err != nil {
		fmt.Fprintf(out, "%3d %-16s %-12s error=%s", n, cmd.Kind, cmd.Caller, dErrors.CodeOf(step.Err))
	} else {
		res := step.Result
		fmt.Fprintf(out, "%3d %-16s %-12s seq=%d asset=%d stage=%d balance=%d",
			n, cmd.Kind, cmd.Caller, res.Sequence, res.AssetID, res.Stage, res.Balance)
	}
	if !ok && want != "" {
		fmt.Fprintf(out, " want=%s", want)
	}
	fmt.Fprintf(out, " [%s]\n", mark)
}
