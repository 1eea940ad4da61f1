package main

import (
	"strconv"
	"time"

	"github.com/siherrmann/civicgraph/core/graph"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	"github.com/spf13/cobra"
)

func ingestCommand(a *app) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest meetings from the portal",
	}
	ingestCmd.AddCommand(ingestMeetingCommand(a), ingestRangeCommand(a))
	return ingestCmd
}

func ingestMeetingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "meeting <id>",
		Short: "Ingest a single meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meetingID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return helper.NewError("parse meeting id", err)
			}

			g, err := a.open()
			if err != nil {
				return err
			}
			result, err := g.IngestMeeting(cmd.Context(), meetingID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func ingestRangeCommand(a *app) *cobra.Command {
	var request model.RangeRequest
	noCrawl := false

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Discover and ingest all meetings in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			request.Crawl = !noCrawl

			g, err := a.open()
			if err != nil {
				return err
			}
			result, err := g.IngestRange(cmd.Context(), request, func(progress model.JobProgress) {
				if progress.CurrentMeetingID != nil {
					cmd.PrintErrf("%s %d/%d meeting %d\n", progress.Stage, progress.Processed, progress.Discovered, *progress.CurrentMeetingID)
				}
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&request.FromDate, "from", "", "First meeting date, YYYY-MM-DD")
	cmd.Flags().StringVar(&request.ToDate, "to", "", "Last meeting date, YYYY-MM-DD")
	cmd.Flags().IntVar(&request.Limit, "limit", 0, "Maximum number of meetings to ingest")
	cmd.Flags().IntVar(&request.ChunkDays, "chunk-days", 0, "Days per discovery window when crawling")
	cmd.Flags().BoolVar(&noCrawl, "no-crawl", false, "Discover with a single listing instead of windows")
	cmd.Flags().DurationVar(&request.CacheTTL, "ttl", 0, "Discovery cache freshness, 0 uses the default")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func backfillCommand(a *app) *cobra.Command {
	var options graph.BackfillOptions
	var meetingID int64

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Rebuild the meeting graph from stored mentions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if meetingID > 0 {
				options.MeetingID = &meetingID
			}

			g, err := a.open()
			if err != nil {
				return err
			}
			start := time.Now()
			counts, err := g.Backfill(cmd.Context(), options)
			if err != nil {
				return err
			}
			cmd.PrintErrf("Backfill finished in %s\n", time.Since(start).Round(time.Millisecond))
			return writeJSON(cmd.OutOrStdout(), counts)
		},
	}

	cmd.Flags().IntVar(&options.Limit, "limit", 0, "Maximum number of meetings, 0 means all")
	cmd.Flags().Int64Var(&meetingID, "meeting", 0, "Rebuild only this meeting")
	cmd.Flags().BoolVar(&options.Prune, "prune", false, "Delete connections no longer backed by mentions")
	cmd.Flags().IntVar(&options.Workers, "workers", 0, "Concurrent rebuilds, 0 uses the configured workers")

	return cmd
}
