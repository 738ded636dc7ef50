// Package graph mirrors active knowledge edges into neo4j so driver →
// sector chains can be traversed. The projection is best-effort: the
// relational store stays the source of truth and a missing NEO4J_URI
// disables the whole layer.
package graph

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

// NewFromEnv connects using NEO4J_URI / NEO4J_USER / NEO4J_PASSWORD /
// NEO4J_DATABASE. Returns (nil, nil) when NEO4J_URI is unset; callers
// treat a nil client as "projection disabled".
func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("graph: logger required")
	}

	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	if uri == "" {
		return nil, nil
	}

	user := strings.TrimSpace(os.Getenv("NEO4J_USER"))
	if user == "" {
		user = "neo4j"
	}
	password := strings.TrimSpace(os.Getenv("NEO4J_PASSWORD"))
	database := strings.TrimSpace(os.Getenv("NEO4J_DATABASE"))

	timeoutSec := 10
	if v := strings.TrimSpace(os.Getenv("NEO4J_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""), func(cfg *neo4j.Config) {
		cfg.SocketConnectTimeout = time.Duration(timeoutSec) * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("graph: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: verify connectivity: %w", err)
	}

	return &Client{
		Driver:   driver,
		Database: database,
		log:      log.With("client", "Neo4jGraph"),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}

// ProjectEdges merges the given active edges into the graph: Driver and
// Target nodes keyed by code, relationships keyed by fingerprint so
// re-projection is idempotent.
func ProjectEdges(ctx context.Context, client *Client, log *logger.Logger, edges []*types.KnowledgeEdge) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e == nil || !e.IsActive || e.TargetCode == "" || e.Fingerprint == "" {
			continue
		}
		driverCode := e.SourceDriverCode
		if driverCode == "" {
			driverCode = "DRV_UNSPECIFIED"
		}
		rec := map[string]any{
			"fingerprint":   e.Fingerprint,
			"driver_code":   driverCode,
			"target_code":   e.TargetCode,
			"target_type":   e.TargetType,
			"logic_summary": e.LogicSummary,
			"document_id":   e.DocumentID,
			"rule_version":  e.RuleVersion,
			"synced_at":     now,
		}
		if e.ValidFrom != nil {
			rec["valid_from"] = e.ValidFrom.UTC().Format(time.RFC3339)
		}
		if e.ValidTo != nil {
			rec["valid_to"] = e.ValidTo.UTC().Format(time.RFC3339)
		}
		rels = append(rels, rec)
	}
	if len(rels) == 0 {
		return nil
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Schema helpers are best-effort; restricted users may not be allowed
	// to create constraints.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT driver_code_unique IF NOT EXISTS FOR (d:Driver) REQUIRE d.code IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}
	if res, err := session.Run(ctx, `CREATE CONSTRAINT target_code_unique IF NOT EXISTS FOR (t:Target) REQUIRE t.code IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rels AS r
MERGE (d:Driver {code: r.driver_code})
MERGE (t:Target {code: r.target_code})
SET t.target_type = r.target_type
MERGE (d)-[e:INDUSTRY_DRIVEN_BY {fingerprint: r.fingerprint}]->(t)
SET e.logic_summary = r.logic_summary,
    e.document_id = r.document_id,
    e.rule_version = r.rule_version,
    e.valid_from = r.valid_from,
    e.valid_to = r.valid_to,
    e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: project edges: %w", err)
	}
	return nil
}

// RemoveEdge drops the relationship for a deactivated edge.
func RemoveEdge(ctx context.Context, client *Client, fingerprint string) error {
	if client == nil || client.Driver == nil || fingerprint == "" {
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
MATCH ()-[e:INDUSTRY_DRIVEN_BY {fingerprint: $fingerprint}]->()
DELETE e
`, map[string]any{"fingerprint": fingerprint})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}
