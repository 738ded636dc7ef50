package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/finsight-backend/internal/data/db"
	"github.com/yungbote/finsight-backend/internal/data/repos"
	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/edges"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

// revalidate reexamines deactivated knowledge edges under an upgraded
// rule version and reactivates the ones that pass. The default
// validator accepts edges whose validity window is still open; -all
// accepts everything (for rule upgrades that fully supersede the reason
// the edges were disabled).
func main() {
	ruleVersion := flag.String("rule-version", "", "rule version to stamp on reactivated edges (required)")
	acceptAll := flag.Bool("all", false, "reactivate every inactive edge regardless of validity window")
	flag.Parse()

	if *ruleVersion == "" {
		fmt.Fprintln(os.Stderr, "usage: revalidate -rule-version <version> [-all]")
		os.Exit(2)
	}

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

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}

	manager := edges.NewManager(repos.NewKnowledgeEdgeRepo(postgresService.DB(), log), log)

	now := time.Now().UTC()
	validator := func(e *types.KnowledgeEdge) bool {
		if *acceptAll {
			return true
		}
		return e.ValidTo == nil || e.ValidTo.After(now)
	}

	count, err := manager.Revalidate(context.Background(), *ruleVersion, validator)
	if err != nil {
		log.Error("Revalidation failed", "rule_version", *ruleVersion, "reactivated", count, "error", err)
		os.Exit(1)
	}
	fmt.Printf("reactivated %d edge(s) under rule version %s\n", count, *ruleVersion)
}
