package graph

import (
	"context"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// NeighborReader lists the entities adjacent to an entity in either direction.
type NeighborReader interface {
	SelectNeighborIDs(ctx context.Context, entityID int64) ([]int64, error)
}

// BFS walks the connection graph breadth-first from sourceID up to maxHops.
// The source itself is the first node. A positive limit caps the number of
// returned nodes.
func BFS(ctx context.Context, db NeighborReader, sourceID int64, maxHops int, limit int) ([]*model.TraversalNode, error) {
	visited := map[int64]bool{sourceID: true}
	queue := []*model.TraversalNode{{
		EntityID: sourceID,
		Depth:    0,
		Path:     []int64{sourceID},
	}}

	var results []*model.TraversalNode
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]

		results = append(results, current)
		if limit > 0 && len(results) >= limit {
			break
		}

		// Stop if we've reached max hops
		if current.Depth >= maxHops {
			continue
		}

		neighbors, err := db.SelectNeighborIDs(ctx, current.EntityID)
		if err != nil {
			return nil, helper.NewError("select neighbors", err)
		}

		for _, neighborID := range neighbors {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			path := make([]int64, len(current.Path), len(current.Path)+1)
			copy(path, current.Path)
			path = append(path, neighborID)

			queue = append(queue, &model.TraversalNode{
				EntityID: neighborID,
				Depth:    current.Depth + 1,
				Path:     path,
			})
		}
	}

	return results, nil
}
