package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/neo4jdb"
)

// Episode is one unit of synced content: the summary body plus the typed
// entities and edges extracted from it. Edges carry validity windows; an
// edge is a live fact until invalid_at is set.
type Episode struct {
	ID            uuid.UUID
	GraphID       string
	Name          string
	Body          string
	Source        string
	ReferenceTime time.Time
	Entities      []EpisodeEntity
	Edges         []EpisodeEdge
}

type EpisodeEntity struct {
	Type string
	Name string
}

type EpisodeEdge struct {
	Type     string
	FromType string
	FromName string
	ToType   string
	ToName   string
	Fact     string
}

// Edge is the read-side shape returned by SearchEdges.
type Edge struct {
	UUID      string     `json:"uuid"`
	Fact      string     `json:"fact"`
	ValidFrom time.Time  `json:"valid_from"`
	InvalidAt *time.Time `json:"invalid_at,omitempty"`
}

// AppendContentEpisode merges an episode node into the per-app graph and
// materializes its entities and edges. Safe to call more than once with the
// same episode id.
func AppendContentEpisode(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, ep Episode) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ep.ID == uuid.Nil || ep.GraphID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	refTime := ep.ReferenceTime
	if refTime.IsZero() {
		refTime = time.Now().UTC()
	}

	entityRows := make([]map[string]any, 0, len(ep.Entities))
	for _, e := range ep.Entities {
		if e.Type == "" || e.Name == "" {
			continue
		}
		entityRows = append(entityRows, map[string]any{
			"graph_id":  ep.GraphID,
			"type":      e.Type,
			"name":      e.Name,
			"synced_at": now,
		})
	}

	edgeRows := make([]map[string]any, 0, len(ep.Edges))
	for _, r := range ep.Edges {
		if r.Type == "" || r.FromName == "" || r.ToName == "" {
			continue
		}
		edgeRows = append(edgeRows, map[string]any{
			"uuid":       uuid.NewSHA1(ep.ID, []byte(r.Type+"|"+r.FromName+"|"+r.ToName)).String(),
			"graph_id":   ep.GraphID,
			"type":       r.Type,
			"from_type":  r.FromType,
			"from_name":  r.FromName,
			"to_type":    r.ToType,
			"to_name":    r.ToName,
			"fact":       truncateString(r.Fact, 1600),
			"valid_from": refTime.Format(time.RFC3339Nano),
			"synced_at":  now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	{
		stmts := []string{
			`CREATE CONSTRAINT kg_episode_id_unique IF NOT EXISTS FOR (ep:Episode) REQUIRE ep.id IS UNIQUE`,
			`CREATE INDEX kg_entity_graph_name IF NOT EXISTS FOR (e:Entity) ON (e.graph_id, e.name)`,
		}
		for _, q := range stmts {
			if res, err := session.Run(ctx, q, nil); err != nil {
				if log != nil {
					log.Warn("neo4j schema init failed (continuing)", "error", err)
				}
			} else {
				_, _ = res.Consume(ctx)
			}
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if res, err := tx.Run(ctx, `
MERGE (ep:Episode {id: $id})
SET ep.graph_id = $graph_id,
    ep.name = $name,
    ep.body = $body,
    ep.source = $source,
    ep.reference_time = $reference_time,
    ep.synced_at = $synced_at
`, map[string]any{
			"id":             ep.ID.String(),
			"graph_id":       ep.GraphID,
			"name":           ep.Name,
			"body":           truncateString(ep.Body, 4000),
			"source":         ep.Source,
			"reference_time": refTime.Format(time.RFC3339Nano),
			"synced_at":      now,
		}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(entityRows) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $entities AS e
MERGE (n:Entity {graph_id: e.graph_id, type: e.type, name: e.name})
SET n.synced_at = e.synced_at
WITH n
MATCH (ep:Episode {id: $episode_id})
MERGE (ep)-[:MENTIONS]->(n)
`, map[string]any{"entities": entityRows, "episode_id": ep.ID.String()})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(edgeRows) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $edges AS r
MERGE (a:Entity {graph_id: r.graph_id, type: r.from_type, name: r.from_name})
MERGE (b:Entity {graph_id: r.graph_id, type: r.to_type, name: r.to_name})
MERGE (a)-[rel:FACT {uuid: r.uuid}]->(b)
SET rel.graph_id = r.graph_id,
    rel.type = r.type,
    rel.fact = r.fact,
    rel.valid_from = r.valid_from,
    rel.synced_at = r.synced_at
`, map[string]any{"edges": edgeRows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	return err
}

// SearchContentEdges returns live facts only: edges whose invalid_at is
// unset. Matching is a case-insensitive substring test on the fact text and
// endpoint names.
func SearchContentEdges(ctx context.Context, client *neo4jdb.Client, graphID, query string, limit int) ([]Edge, error) {
	if client == nil || client.Driver == nil || graphID == "" {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Entity)-[rel:FACT]->(b:Entity)
WHERE rel.graph_id = $graph_id
  AND rel.invalid_at IS NULL
  AND ($query = '' OR toLower(rel.fact) CONTAINS toLower($query)
       OR toLower(a.name) CONTAINS toLower($query)
       OR toLower(b.name) CONTAINS toLower($query))
RETURN rel.uuid AS uuid, rel.fact AS fact, rel.valid_from AS valid_from
ORDER BY rel.valid_from DESC
LIMIT $limit
`, map[string]any{"graph_id": graphID, "query": query, "limit": limit})
		if err != nil {
			return nil, err
		}

		var edges []Edge
		for res.Next(ctx) {
			rec := res.Record()
			e := Edge{}
			if v, ok := rec.Get("uuid"); ok {
				if s, ok := v.(string); ok {
					e.UUID = s
				}
			}
			if v, ok := rec.Get("fact"); ok {
				if s, ok := v.(string); ok {
					e.Fact = s
				}
			}
			if v, ok := rec.Get("valid_from"); ok {
				if s, ok := v.(string); ok {
					if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
						e.ValidFrom = t
					}
				}
			}
			edges = append(edges, e)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return edges, nil
	})
	if err != nil {
		return nil, err
	}
	edges, _ := out.([]Edge)
	return edges, nil
}

// InvalidateContentEdge closes an edge's validity window instead of
// deleting it, so history stays queryable.
func InvalidateContentEdge(ctx context.Context, client *neo4jdb.Client, graphID, edgeUUID string) error {
	if client == nil || client.Driver == nil || graphID == "" || edgeUUID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (:Entity)-[rel:FACT {uuid: $uuid}]->(:Entity)
WHERE rel.graph_id = $graph_id
SET rel.invalid_at = $invalid_at
`, map[string]any{
			"uuid":       edgeUUID,
			"graph_id":   graphID,
			"invalid_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func truncateString(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
