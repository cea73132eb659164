package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evonft/internal/evolution/metadata"
	"evonft/internal/evolution/models"
)

func newRenderCmd() *cobra.Command {
	var stage string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the token URI for a stage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := models.ParseStage(stage)
			if err != nil {
				return err
			}
			uri, err := metadata.RenderURI(parsed)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), uri)
			return err
		},
	}
	cmd.Flags().StringVar(&stage, "stage", models.StageInitial.String(), "stage to render (1-3)")
	return cmd
}
