package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"religious_services_backend/internal/config"
	"religious_services_backend/internal/platform/crypto"
	"religious_services_backend/internal/platform/database"
	platformElasticsearch "religious_services_backend/internal/platform/elasticsearch"
	"religious_services_backend/internal/platform/logger"
	"religious_services_backend/internal/question"
	"religious_services_backend/internal/shared"
	"religious_services_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const usage = `Usage: server [command]

Commands:
  server          Run the HTTP API (default)
  sync-questions  Re-index public questions into Elasticsearch
  create-admin    Create an admin account or promote an existing one
`

func main() {
	command := "server"
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	switch command {
	case "server":
		startServer()
	case "sync-questions":
		runSyncQuestions(args)
	case "create-admin":
		runCreateAdmin(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)
	case err := <-errCh:
		if err != nil {
			log.Printf("ERROR: Server stopped unexpectedly: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}

// cliEnv holds what the one-shot commands share.
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func openCLIEnv(command string) *cliEnv {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for %s: %v", command, err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for %s: %v", command, err)
	}
	db, err := database.NewGORM(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.String("command", command), zap.Error(err))
	}
	return &cliEnv{cfg: cfg, logger: appLogger.Named(command), db: db}
}

func (e *cliEnv) close() {
	database.Close(e.db, e.logger)
	_ = e.logger.Sync()
}

func runSyncQuestions(args []string) {
	fs := flag.NewFlagSet("sync-questions", flag.ExitOnError)
	batchSize := fs.Int("batch-size", 100, "Batch size for syncing questions")
	esRefresh := fs.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")
	_ = fs.Parse(args)

	env := openCLIEnv("sync-questions")
	defer env.close()

	esClient, err := platformElasticsearch.NewClient(env.cfg, env.logger)
	if err != nil {
		env.logger.Fatal("Failed to initialize Elasticsearch client", zap.Error(err))
	}
	if esClient == nil {
		env.logger.Fatal("ELASTICSEARCH_URL is not set, nothing to sync")
	}

	ctx := context.Background()
	if err := platformElasticsearch.CreateQuestionsIndexIfNotExists(ctx, esClient, env.cfg.QuestionsIndexName, env.logger); err != nil {
		env.logger.Fatal("Failed to create/verify Elasticsearch index before sync", zap.Error(err))
	}

	indexer := question.NewESIndexer(esClient, env.cfg.QuestionsIndexName, env.logger)
	svc := question.NewService(question.NewGORMRepository(env.db), nil, nil, indexer, nil, env.cfg.QuestionAnsweredTopic, env.logger)

	synced, err := svc.SyncIndex(ctx, *batchSize, *esRefresh)
	if err != nil {
		env.logger.Fatal("Question synchronization failed", zap.Int("synced", synced), zap.Error(err))
	}
	env.logger.Info("Question synchronization completed successfully.", zap.Int("synced", synced))
}

func runCreateAdmin(args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "Admin email (required)")
	password := fs.String("password", "", "Admin password; generated when empty")
	firstName := fs.String("first-name", "Admin", "First name")
	lastName := fs.String("last-name", "User", "Last name")
	_ = fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		fs.Usage()
		os.Exit(2)
	}

	generated := false
	if *password == "" {
		token, err := crypto.RandomToken(18)
		if err != nil {
			log.Fatalf("FATAL: Failed to generate password: %v", err)
		}
		*password = token
		generated = true
	}

	env := openCLIEnv("create-admin")
	defer env.close()

	// Token issuing is not needed to create an account.
	users := user.NewService(user.NewGORMRepository(env.db), nil, env.logger)
	admin, created, err := users.EnsureAdmin(context.Background(), shared.CreateUserRequest{
		Email:     strings.ToLower(strings.TrimSpace(*email)),
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
	})
	if err != nil {
		env.logger.Fatal("Failed to create admin", zap.Error(err))
	}

	switch {
	case created && generated:
		fmt.Printf("Admin %s created. Generated password: %s\n", admin.Email, *password)
	case created:
		fmt.Printf("Admin %s created.\n", admin.Email)
	default:
		fmt.Printf("Existing user %s now has the admin role.\n", admin.Email)
	}
}
