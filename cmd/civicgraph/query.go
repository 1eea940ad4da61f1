package main

import (
	"github.com/siherrmann/civicgraph/model"
	"github.com/spf13/cobra"
)

func suggestCommand(a *app) *cobra.Command {
	var entityType string
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Rank entities for an autocomplete query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := model.ParseEntityType(entityType)
			if err != nil {
				return err
			}

			g, err := a.open()
			if err != nil {
				return err
			}
			results, err := g.Engine.Suggest(cmd.Context(), args[0], parsed, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&entityType, "type", "", "Restrict results to one entity type")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results, 0 uses the default")

	return cmd
}

func coverageCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Print row counts of the stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.open()
			if err != nil {
				return err
			}
			coverage, err := g.Engine.Coverage(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), coverage)
		},
	}
}
