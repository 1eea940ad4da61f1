package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/civicgraph"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	g, err := civicgraph.NewCivicGraph(dbConfig, civicgraph.DefaultOptions())
	if err != nil {
		log.Fatalf("Failed to create civicgraph: %v", err)
	}
	defer g.Close()

	// A payload as the portal client would build it, so the example runs offline.
	meetingDate := time.Date(2026, time.February, 18, 0, 0, 0, 0, time.UTC)
	minutesID := int64(2272)
	payload := &model.MeetingPayload{
		Meeting: model.Meeting{
			MeetingID:   1408,
			Name:        "City Council - February 18, 2026",
			MeetingDate: &meetingDate,
			MeetingTime: "6:00 PM",
			Location:    "Council Chambers",
		},
		AgendaItems: []model.AgendaItem{
			{ItemKey: "6.17", Section: "PUBLIC HEARINGS", Title: "Ordinance 2026-14 rezoning 10841 Douglas Avenue from R-1 to PUD", Position: 1},
			{ItemKey: "6.18", Title: "Approve minutes of the February 4, 2026 meeting", Position: 2},
		},
		Documents: []model.Document{
			{
				DocumentID:    2271,
				AgendaItemKey: "6.17",
				Title:         "Staff Report",
				URL:           "https://urbandaleia.civicweb.net/document/2271",
				Content:       "Staff Report The applicant, The Enclave Apartments, LLC requests rezoning of 10841 Douglas Avenue.",
				TextStatus:    model.TextStatusOK,
			},
			{
				DocumentID:    2272,
				AgendaItemKey: "6.18",
				Title:         "Meeting Minutes",
				URL:           "https://urbandaleia.civicweb.net/document/2272",
				IsMinutes:     true,
				Content:       "Meeting Minutes Mayor Jane Smith called the meeting to order.",
				TextStatus:    model.TextStatusOK,
			},
		},
		Minutes: &model.MinutesMetadata{
			MeetingID:  1408,
			DocumentID: &minutesID,
			Title:      "Meeting Minutes",
			Excerpt:    "Mayor Jane Smith called the meeting to order. Smith closed the hearing on February 4, 2026.",
			Status:     model.TextStatusOK,
		},
	}

	fmt.Println("Ingesting meeting 1408...")
	result, err := g.IngestPayload(ctx, payload)
	if err != nil {
		log.Fatalf("Failed to ingest meeting: %v", err)
	}
	fmt.Printf("Extracted %d mentions from %d sources, %d connections\n", result.Mentions, result.Sources, result.Graph.Connections)
	for key, signal := range result.ZoningSignals {
		fmt.Printf("Zoning signal on item %s: %s -> %s\n", key, signal.FromZone, signal.ToZone)
	}

	entities, err := g.Engine.MeetingEntities(ctx, 1408)
	if err != nil {
		log.Fatalf("Failed to list meeting entities: %v", err)
	}
	fmt.Printf("\nMeeting 1408 mentions %d entities:\n", len(entities))
	for _, entry := range entities {
		fmt.Printf("  %-18s %s (%d mentions)\n", entry.Entity.Type, entry.Entity.DisplayValue, len(entry.Mentions))
	}

	suggestions, err := g.Engine.Suggest(ctx, "douglas", model.EntityTypeAddress, 5)
	if err != nil {
		log.Fatalf("Failed to suggest: %v", err)
	}
	fmt.Println("\nSuggestions for \"douglas\":")
	for _, suggestion := range suggestions {
		fmt.Printf("  %.3f %s\n", suggestion.Score, suggestion.Entity.DisplayValue)

		groups, err := g.Engine.Connections(ctx, suggestion.Entity.ID, model.ConnectionFilter{})
		if err != nil {
			log.Fatalf("Failed to load connections: %v", err)
		}
		for _, group := range groups {
			fmt.Printf("    %s %s %s (%d edges)\n", group.RelationType, group.Other.Type, group.Other.DisplayValue, group.EdgeCount)
		}
	}

	fmt.Println("\nBasic example completed successfully!")
}
