package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/finsight-backend/internal/data/cache"
	"github.com/yungbote/finsight-backend/internal/data/db"
	"github.com/yungbote/finsight-backend/internal/data/graph"
	"github.com/yungbote/finsight-backend/internal/data/repos"
	"github.com/yungbote/finsight-backend/internal/edges"
	"github.com/yungbote/finsight-backend/internal/ingestion/pipeline"
	"github.com/yungbote/finsight-backend/internal/observability"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
	"github.com/yungbote/finsight-backend/internal/refdata"
	"github.com/yungbote/finsight-backend/internal/resolver"
	"github.com/yungbote/finsight-backend/internal/sector"
	"github.com/yungbote/finsight-backend/internal/utils"
)

// ingestd reads newline-delimited JSON documents from stdin, runs them
// through the ingestion pipeline in batches and exits at EOF. SIGINT
// and SIGTERM cancel between documents; reruns are safe because every
// write is fingerprint-idempotent.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err := db.AutoMigrateAll(thePG); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureEdgeIndexes(thePG); err != nil {
		log.Error("Edge index setup failed", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureAssignmentIndexes(thePG); err != nil {
		log.Error("Assignment index setup failed", "error", err)
		os.Exit(1)
	}

	companyRepo := repos.NewCanonicalCompanyRepo(thePG, log)
	aliasRepo := repos.NewCompanyAliasRepo(thePG, log)
	assignmentRepo := repos.NewSectorAssignmentRepo(thePG, log)
	edgeRepo := repos.NewKnowledgeEdgeRepo(thePG, log)
	identityRepo := repos.NewDocumentIdentityRepo(thePG, log)

	metrics := observability.NewMetrics()

	loader := refdata.NewLoader(companyRepo, aliasRepo, log)
	loader.OnRefresh = func(ok bool) {
		if ok {
			metrics.SnapshotRefreshOK.Inc()
		} else {
			metrics.SnapshotRefreshErr.Inc()
		}
	}
	if _, err := loader.Current(ctx); err != nil {
		log.Error("Initial reference snapshot failed", "error", err)
		os.Exit(1)
	}

	taxonomy, err := sector.LoadTaxonomy(log)
	if err != nil {
		log.Error("Taxonomy load failed", "error", err)
		os.Exit(1)
	}

	seenCache, err := cache.NewSeenCacheFromEnv(log)
	if err != nil {
		log.Warn("Seen cache unavailable, continuing without it", "error", err)
		seenCache = nil
	}
	defer seenCache.Close()

	graphClient, err := graph.NewFromEnv(log)
	if err != nil {
		log.Warn("Graph projection unavailable, continuing without it", "error", err)
		graphClient = nil
	}
	defer graphClient.Close(context.Background())

	p := pipeline.New(pipeline.Config{
		Resolver:    resolver.New(loader, aliasRepo, nil, log),
		Classifier:  sector.NewClassifier(taxonomy, log),
		Assignments: assignmentRepo,
		Identities:  identityRepo,
		Edges:       edges.NewManager(edgeRepo, log),
		Seen:        seenCacheOrNil(seenCache),
		Graph:       graphClient,
		Metrics:     metrics,
	}, log)

	batchSize := utils.GetEnvAsInt("INGEST_BATCH_SIZE", 100, log)
	if batchSize < 1 {
		batchSize = 1
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	batch := make([]pipeline.Document, 0, batchSize)
	lineNo := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc pipeline.Document
		if err := json.Unmarshal(line, &doc); err != nil {
			log.Warn("Skipping malformed document", "line", lineNo, "error", err)
			continue
		}
		batch = append(batch, doc)
		if len(batch) < batchSize {
			continue
		}
		if err := runBatch(ctx, p, log, batch); err != nil {
			os.Exit(1)
		}
		batch = batch[:0]
	}
	if err := scanner.Err(); err != nil {
		log.Error("Reading stdin failed", "error", err)
		os.Exit(1)
	}
	if len(batch) > 0 && ctx.Err() == nil {
		if err := runBatch(ctx, p, log, batch); err != nil {
			os.Exit(1)
		}
	}

	log.Info("Ingestion finished", "metrics", metrics.Snapshot())
}

func runBatch(ctx context.Context, p *pipeline.Pipeline, log *logger.Logger, batch []pipeline.Document) error {
	results, err := p.Run(ctx, batch)
	if err != nil {
		log.Error("Batch aborted", "error", err)
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			log.Warn("Document failed", "document_id", r.DocumentID, "error", r.Err)
		}
	}
	return nil
}

// seenCacheOrNil keeps the pipeline's SeenCache interface nil when the
// concrete client is absent, so the typed-nil never masks the check.
func seenCacheOrNil(c *cache.SeenCache) pipeline.SeenCache {
	if c == nil {
		return nil
	}
	return c
}
