package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/siherrmann/civicgraph"
	"github.com/siherrmann/civicgraph/core/extract"
	"github.com/siherrmann/civicgraph/core/topics"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/spf13/cobra"
)

// app holds the lazily opened graph shared by all subcommands.
type app struct {
	debug bool
	force bool
	graph *civicgraph.CivicGraph
}

func rootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "civicgraph",
		Short:         "Civic meeting entity graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		migrateCommand(a),
		ingestCommand(a),
		backfillCommand(a),
		suggestCommand(a),
		coverageCommand(a),
		classifyCommand(),
		extractCommand(),
	)

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if a.graph == nil {
			return nil
		}
		return a.graph.Close()
	}

	return rootCmd
}

// open connects to the database configured by the environment.
func (a *app) open() (*civicgraph.CivicGraph, error) {
	if a.graph != nil {
		return a.graph, nil
	}

	config, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, helper.NewError("database configuration", err)
	}

	level := slog.LevelInfo
	if a.debug {
		level = slog.LevelDebug
	}
	options := civicgraph.DefaultOptions()
	options.ForceSQL = a.force
	options.Logger = slog.New(helper.NewPrettyHandler(os.Stderr, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	}))

	a.graph, err = civicgraph.NewCivicGraph(config, options)
	if err != nil {
		return nil, err
	}
	return a.graph, nil
}

func migrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and load the SQL functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			cmd.Println("Database ready")
			return nil
		},
	}
	cmd.Flags().BoolVar(&a.force, "force", false, "Reload the SQL functions even if they already exist")
	return cmd
}

func classifyCommand() *cobra.Command {
	classifier := topics.DefaultClassifier()
	names := []string{}
	for _, topic := range classifier.Topics() {
		names = append(names, string(topic))
	}

	return &cobra.Command{
		Use:   "classify <title> [body]",
		Short: "Print the topics and zoning signals of an agenda text",
		Long:  "Print the topics and zoning signals of an agenda text.\n\nTopics: " + strings.Join(names, ", "),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := ""
			if len(args) > 1 {
				body = args[1]
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"topics": classifier.Classify(args[0], body),
				"zoning": topics.ExtractZoningSignals(args[0], body),
			})
		},
	}
}

func extractCommand() *cobra.Command {
	set := extract.DefaultSet()
	names := []string{}
	for _, entityType := range set.Types() {
		names = append(names, string(entityType))
	}

	return &cobra.Command{
		Use:   "extract <text>",
		Short: "Print the entity candidates of a text",
		Long:  "Print the entity candidates of a text.\n\nTypes: " + strings.Join(names, ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), set.Extract(args[0]))
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
