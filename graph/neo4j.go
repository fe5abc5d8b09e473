package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/becomeliminal/recall-go-sdk/core"
)

// Neo4jConfig configures the Neo4j sink.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string

	// ConnectTimeout bounds driver construction and the connectivity
	// check (default 10s).
	ConnectTimeout time.Duration
}

// Neo4jSink mirrors memories into Neo4j as (:Memory) nodes linked to
// their (:Conversation) node.
type Neo4jSink struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jSink connects to Neo4j and verifies connectivity.
func NewNeo4jSink(cfg Neo4jConfig) (*Neo4jSink, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j: URI is required")
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		c.SocketConnectTimeout = cfg.ConnectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}

	log.Debug("neo4j sink connected", "uri", cfg.URI, "database", cfg.Database)
	return &Neo4jSink{driver: driver, database: cfg.Database}, nil
}

const ingestQuery = `
MERGE (m:Memory {id: $id})
SET m.content = $content,
    m.owner_id = $owner_id,
    m.action = $action,
    m.updated_at = datetime()
WITH m
CALL {
    WITH m
    WITH m WHERE $conversation_id <> ''
    MERGE (c:Conversation {id: $conversation_id})
    MERGE (m)-[:FROM]->(c)
}
RETURN m.id`

// Ingest upserts the memory node. Failures come back as SinkError so
// callers can tell mirror trouble apart from primary-path errors.
func (s *Neo4jSink) Ingest(ctx context.Context, content string, meta Metadata) error {
	params := map[string]any{
		"id":              meta.RecordID,
		"content":         content,
		"owner_id":        meta.OwnerID,
		"conversation_id": meta.ConversationID,
		"action":          meta.Action,
	}

	_, err := neo4j.ExecuteQuery(ctx, s.driver, ingestQuery, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
	if err != nil {
		return &core.SinkError{Err: err}
	}
	return nil
}

// Close shuts down the driver.
func (s *Neo4jSink) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
