package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
)

// LineageService projects family members and their father links into the
// graph. Postgres stays the source of truth; the graph is a read model for
// ancestry traversals, so every write here is idempotent (MERGE semantics).
type LineageService struct {
	client *Client
	logger ectologger.Logger
}

// NewLineageService creates a new lineage service
func NewLineageService(client *Client, logger ectologger.Logger) *LineageService {
	return &LineageService{
		client: client,
		logger: logger,
	}
}

// UpsertMember creates or updates a member node and its CHILD_OF edge.
// A nil FatherID clears any existing edge.
func (s *LineageService) UpsertMember(ctx context.Context, member *models.Member) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LineageService.UpsertMember")
	defer span.End()

	props := map[string]any{
		"id":          member.ID,
		"first_name":  member.FirstName,
		"father_name": member.FatherName,
		"family_name": member.FamilyName,
		"full_name":   member.FullName(),
		"gender":      string(member.Gender),
		"generation":  member.Generation,
	}
	if member.BirthYear != nil {
		props["birth_year"] = *member.BirthYear
	}

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (m:Member {id: $id})
			SET m = $props
		`, map[string]any{"id": member.ID, "props": props})
		if err != nil {
			return nil, err
		}

		_, err = tx.Run(ctx, `
			MATCH (m:Member {id: $id})-[r:CHILD_OF]->()
			DELETE r
		`, map[string]any{"id": member.ID})
		if err != nil {
			return nil, err
		}

		if member.FatherID != nil {
			_, err = tx.Run(ctx, `
				MATCH (m:Member {id: $id})
				MERGE (f:Member {id: $father_id})
				MERGE (m)-[:CHILD_OF]->(f)
			`, map[string]any{"id": member.ID, "father_id": *member.FatherID})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": member.ID,
		}).Error("Failed to upsert member in graph")
		return fmt.Errorf("failed to upsert member in graph: %w", err)
	}

	return nil
}

// RemoveMember deletes a member node and all of its edges
func (s *LineageService) RemoveMember(ctx context.Context, memberID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LineageService.RemoveMember")
	defer span.End()

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (m:Member {id: $id})
			DETACH DELETE m
		`, map[string]any{"id": memberID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to remove member from graph")
		return fmt.Errorf("failed to remove member from graph: %w", err)
	}

	return nil
}

// ProjectMerge repoints every edge touching the removed member onto the kept
// member, then deletes the removed node. Runs in one write transaction so the
// graph never shows a half-applied merge.
func (s *LineageService) ProjectMerge(ctx context.Context, keepID, removeID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LineageService.ProjectMerge")
	defer span.End()

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Children of the removed member become children of the kept member.
		_, err := tx.Run(ctx, `
			MATCH (c:Member)-[r:CHILD_OF]->(removed:Member {id: $remove_id})
			MATCH (keep:Member {id: $keep_id})
			WHERE c.id <> keep.id
			MERGE (c)-[:CHILD_OF]->(keep)
			DELETE r
		`, map[string]any{"keep_id": keepID, "remove_id": removeID})
		if err != nil {
			return nil, err
		}

		// If only the removed member had a father edge, the kept member
		// inherits it.
		_, err = tx.Run(ctx, `
			MATCH (removed:Member {id: $remove_id})-[r:CHILD_OF]->(f:Member)
			MATCH (keep:Member {id: $keep_id})
			WHERE f.id <> keep.id AND NOT (keep)-[:CHILD_OF]->()
			MERGE (keep)-[:CHILD_OF]->(f)
		`, map[string]any{"keep_id": keepID, "remove_id": removeID})
		if err != nil {
			return nil, err
		}

		_, err = tx.Run(ctx, `
			MATCH (removed:Member {id: $remove_id})
			DETACH DELETE removed
		`, map[string]any{"remove_id": removeID})
		return nil, err
	})

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"keep_id":   keepID,
			"remove_id": removeID,
		}).Error("Failed to project merge into graph")
		return fmt.Errorf("failed to project merge into graph: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"keep_id":   keepID,
		"remove_id": removeID,
	}).Debug("Projected merge into graph")

	return nil
}

// Ancestors walks the CHILD_OF chain upward from a member, nearest first
func (s *LineageService) Ancestors(ctx context.Context, memberID string, maxDepth int) ([]map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.LineageService.Ancestors")
	defer span.End()

	if maxDepth <= 0 {
		maxDepth = 10
	}

	cypher := fmt.Sprintf(`
		MATCH path = (m:Member {id: $id})-[:CHILD_OF*1..%d]->(a:Member)
		RETURN a, length(path) AS depth
		ORDER BY depth ASC
	`, maxDepth)

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": memberID})
		if err != nil {
			return nil, err
		}

		var ancestors []map[string]any
		for res.Next(ctx) {
			record := res.Record()
			node, ok := record.Get("a")
			if !ok {
				continue
			}
			props := node.(neo4j.Node).Props
			if depth, ok := record.Get("depth"); ok {
				props["depth"] = depth
			}
			ancestors = append(ancestors, props)
		}
		return ancestors, res.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load ancestors from graph: %w", err)
	}

	ancestors, _ := result.([]map[string]any)
	return ancestors, nil
}

// Descendants walks the CHILD_OF chain downward from a member
func (s *LineageService) Descendants(ctx context.Context, memberID string, maxDepth int) ([]map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.LineageService.Descendants")
	defer span.End()

	if maxDepth <= 0 {
		maxDepth = 10
	}

	cypher := fmt.Sprintf(`
		MATCH path = (d:Member)-[:CHILD_OF*1..%d]->(m:Member {id: $id})
		RETURN d, length(path) AS depth
		ORDER BY depth ASC
	`, maxDepth)

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": memberID})
		if err != nil {
			return nil, err
		}

		var descendants []map[string]any
		for res.Next(ctx) {
			record := res.Record()
			node, ok := record.Get("d")
			if !ok {
				continue
			}
			props := node.(neo4j.Node).Props
			if depth, ok := record.Get("depth"); ok {
				props["depth"] = depth
			}
			descendants = append(descendants, props)
		}
		return descendants, res.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load descendants from graph: %w", err)
	}

	descendants, _ := result.([]map[string]any)
	return descendants, nil
}
