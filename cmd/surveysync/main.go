package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-surveysync"
	"github.com/goliatone/go-surveysync/internal/config"
	"github.com/goliatone/go-surveysync/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "configuration file (searches ./surveysync.yaml and ./configs when empty)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before configuration")
	transportName := flag.String("transport", "", "override sync.transport (stdin or redis)")
	httpAddr := flag.String("http", "", "override http.address for the inspection endpoint")
	openapiPath := flag.String("openapi", "", "print the survey schema derived from this OpenAPI document and exit")
	operationID := flag.String("operation", "", "operation ID used with -openapi")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *openapiPath != "" {
		if err := printSchema(ctx, *openapiPath, *operationID); err != nil {
			log.Fatalf("Failed to derive schema: %v", err)
		}
		return
	}

	opts := config.DefaultOptions()
	opts.File = *configFile
	opts.EnvFiles = []string{*envFile}
	cfg, err := config.Load(opts)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *transportName != "" {
		cfg.Sync.Transport = *transportName
	}
	if *httpAddr != "" {
		cfg.HTTP.Address = *httpAddr
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zl.Sync() }()
	appLogger := logger.NewZapAdapter(zl).WithFields(map[string]interface{}{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error("surveysync: stopped", map[string]interface{}{"error": err.Error()})
		_ = zl.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger logger.Logger) error {
	svc, err := surveysync.NewService(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer svc.Close()

	appLogger.Info("surveysync: serving", map[string]interface{}{
		"transport": cfg.Sync.Transport,
		"sinks":     cfg.Sync.Sinks,
	})
	return svc.Serve(ctx, os.Stdin)
}

func printSchema(ctx context.Context, path, operationID string) error {
	if operationID == "" {
		return fmt.Errorf("-operation is required with -openapi")
	}
	schema, err := surveysync.SchemaFromOpenAPIFile(ctx, path, operationID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}
