package kg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pressroom-backend/internal/data/graph"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/neo4jdb"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
)

// Syncer appends finished content into the per-app knowledge graph and
// answers fact queries for inbound research context. Everything here is
// best-effort: a nil graph client turns every call into a no-op, and the
// callers treat errors as log-and-continue.
type Syncer struct {
	graphClient *neo4jdb.Client
	ai          openai.Client
	log         *logger.Logger
}

func NewSyncer(graphClient *neo4jdb.Client, ai openai.Client, baseLog *logger.Logger) *Syncer {
	return &Syncer{
		graphClient: graphClient,
		ai:          ai,
		log:         baseLog.With("service", "KGSyncer"),
	}
}

// Enabled reports whether a graph backend is configured.
func (s *Syncer) Enabled() bool {
	return s != nil && s.graphClient != nil && s.graphClient.Driver != nil
}

// SyncContent extracts typed entities and edges from the content and appends
// an episode to the app's graph. contentID keys the episode so replays merge
// instead of duplicating.
func (s *Syncer) SyncContent(ctx context.Context, app string, contentID uuid.UUID, title, body string) error {
	if !s.Enabled() || contentID == uuid.Nil {
		return nil
	}

	graphID := GraphIDForApp(app)
	ont := OntologyForGraph(graphID)

	entities, edges, err := s.extract(ctx, ont, title, body)
	if err != nil {
		// Extraction failure degrades to a bare episode; the summary body is
		// still worth keeping.
		s.log.Warn("entity extraction failed, appending bare episode",
			"app", app, "graph_id", graphID, "error", err)
		entities, edges = nil, nil
	}

	ep := graph.Episode{
		ID:            contentID,
		GraphID:       graphID,
		Name:          title,
		Body:          body,
		Source:        "content-pipeline",
		ReferenceTime: time.Now().UTC(),
		Entities:      entities,
		Edges:         edges,
	}
	return graph.AppendContentEpisode(ctx, s.graphClient, s.log, ep)
}

// SearchFacts returns live facts from the app's graph for use as research
// context. Only edges with an open validity window come back.
func (s *Syncer) SearchFacts(ctx context.Context, app, query string, limit int) ([]graph.Edge, error) {
	if !s.Enabled() {
		return nil, nil
	}
	return graph.SearchContentEdges(ctx, s.graphClient, GraphIDForApp(app), query, limit)
}

func (s *Syncer) extract(ctx context.Context, ont Ontology, title, body string) ([]graph.EpisodeEntity, []graph.EpisodeEdge, error) {
	if s.ai == nil {
		return nil, nil, nil
	}

	entityTypes := make([]any, 0, len(ont.EntityTypes))
	for _, t := range ont.EntityTypes {
		entityTypes = append(entityTypes, t)
	}
	edgeTypes := make([]any, 0, len(ont.EdgeTypes))
	for _, t := range ont.EdgeTypes {
		edgeTypes = append(edgeTypes, t)
	}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"entities", "edges"},
		"properties": map[string]any{
			"entities": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"type", "name"},
					"properties": map[string]any{
						"type": map[string]any{"type": "string", "enum": entityTypes},
						"name": map[string]any{"type": "string"},
					},
				},
			},
			"edges": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"type", "from_type", "from_name", "to_type", "to_name", "fact"},
					"properties": map[string]any{
						"type":      map[string]any{"type": "string", "enum": edgeTypes},
						"from_type": map[string]any{"type": "string", "enum": entityTypes},
						"from_name": map[string]any{"type": "string"},
						"to_type":   map[string]any{"type": "string", "enum": entityTypes},
						"to_name":   map[string]any{"type": "string"},
						"fact":      map[string]any{"type": "string"},
					},
				},
			},
		},
	}

	system := "You extract a knowledge graph from published content. " +
		"Emit only entities and relationships explicitly supported by the text. " +
		"Entity types: " + strings.Join(ont.EntityTypes, ", ") + ". " +
		"Edge types: " + strings.Join(ont.EdgeTypes, ", ") + "."
	user := fmt.Sprintf("Title: %s\n\nContent:\n%s", title, truncateForPrompt(body, 24000))

	obj, err := s.ai.GenerateJSON(ctx, system, user, "kg_extraction", schema)
	if err != nil {
		return nil, nil, err
	}

	var entities []graph.EpisodeEntity
	if raw, ok := obj["entities"].([]any); ok {
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			typ, _ := m["type"].(string)
			name, _ := m["name"].(string)
			name = strings.TrimSpace(name)
			if name == "" || !ont.hasEntityType(typ) {
				continue
			}
			entities = append(entities, graph.EpisodeEntity{Type: typ, Name: name})
		}
	}

	var edges []graph.EpisodeEdge
	if raw, ok := obj["edges"].([]any); ok {
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			typ, _ := m["type"].(string)
			fromType, _ := m["from_type"].(string)
			fromName, _ := m["from_name"].(string)
			toType, _ := m["to_type"].(string)
			toName, _ := m["to_name"].(string)
			fact, _ := m["fact"].(string)
			if !ont.hasEdgeType(typ) || !ont.hasEntityType(fromType) || !ont.hasEntityType(toType) {
				continue
			}
			if strings.TrimSpace(fromName) == "" || strings.TrimSpace(toName) == "" {
				continue
			}
			edges = append(edges, graph.EpisodeEdge{
				Type:     typ,
				FromType: fromType,
				FromName: strings.TrimSpace(fromName),
				ToType:   toType,
				ToName:   strings.TrimSpace(toName),
				Fact:     strings.TrimSpace(fact),
			})
		}
	}
	return entities, edges, nil
}

func truncateForPrompt(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
