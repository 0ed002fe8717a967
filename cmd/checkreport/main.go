// checkreport - Check Fraud Analysis Report Generator
//
// checkreport turns check analysis records (forensics, OCR, rule results)
// into paginated PDF reports. It runs in two modes:
//   - one-shot: read a record file and write the PDF artifact
//   - serve: expose report generation over HTTP and WebSocket
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ymehili/fraudcheck/pkg/analysis"
	"github.com/ymehili/fraudcheck/pkg/api"
	"github.com/ymehili/fraudcheck/pkg/config"
	"github.com/ymehili/fraudcheck/pkg/export"
	"github.com/ymehili/fraudcheck/pkg/report"
	"github.com/ymehili/fraudcheck/pkg/spinner"
	"github.com/ymehili/fraudcheck/pkg/store"
)

const version = "1.2.0"

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Config file path (default: ./fraudcheck.yaml)")
	recordPath := flag.String("record", "", "Analysis record JSON file to render")
	outPath := flag.String("out", "", "Output path for the PDF artifact")
	serve := flag.Bool("serve", false, "Run the report API server")
	initConfig := flag.Bool("init", false, "Initialize default config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("checkreport %s\n", version)
		os.Exit(0)
	}

	// Determine config path
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	// Initialize config if requested
	if *initConfig {
		if err := config.InitConfig(cfgPath); err != nil {
			fmt.Printf("Failed to initialize config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config initialized at: %s\n", cfgPath)
		fmt.Println("Edit this file to configure page geometry, output, and the API server.")
		os.Exit(0)
	}

	// Load config
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	// Build the generation pipeline from config
	sink := export.NewPDFSink()
	sink.Compress = cfg.Report.Compress

	gen := report.NewGenerator(sink)
	gen.Geometry = report.Geometry{
		PageWidth:  cfg.Report.PageWidth,
		PageHeight: cfg.Report.PageHeight,
		Margin:     cfg.Report.Margin,
	}
	if cfg.Report.Producer != "" {
		gen.Producer = cfg.Report.Producer
	}

	if *serve {
		runServer(ctx, cfg, gen, sink)
		return
	}

	if *recordPath == "" {
		fmt.Println("Nothing to do: pass -record to render a report, or -serve to run the API.")
		flag.Usage()
		os.Exit(1)
	}

	if err := runOnce(cfg, gen, *recordPath, *outPath); err != nil {
		fmt.Printf("Report generation failed: %v\n", err)
		os.Exit(1)
	}
}

// runOnce renders a single record file to a PDF artifact.
func runOnce(cfg *config.Config, gen *report.Generator, recordPath, outPath string) error {
	data, err := os.ReadFile(recordPath)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}

	rec, err := analysis.Decode(data)
	if err != nil {
		return err
	}

	dest := outPath
	if dest == "" {
		if err := os.MkdirAll(cfg.Report.OutputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		dest = filepath.Join(cfg.Report.OutputDir, report.DefaultFileName(rec))
	}

	sp := spinner.New(fmt.Sprintf("Generating report for %s", rec.ShortID()))
	sp.Start()

	path, err := gen.Write(rec, dest)
	if err != nil {
		sp.Fail("Report generation failed")
		return err
	}

	sha, err := export.HashFile(path)
	if err != nil {
		sp.Fail("Report written but hashing failed")
		return err
	}

	sp.Success(fmt.Sprintf("Report written to %s", path))
	fmt.Printf("  Risk score: %.1f/100\n", rec.RiskScore)
	fmt.Printf("  %s: %s\n", export.HashAlgorithm, export.ShortHash(sha))
	return nil
}

// runServer runs the report API until the context is cancelled.
func runServer(ctx context.Context, cfg *config.Config, gen *report.Generator, sink *export.PDFSink) {
	// Display banner
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║        checkreport - Fraud Analysis Report Server         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := os.MkdirAll(cfg.Report.OutputDir, 0755); err != nil {
		fmt.Printf("Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	hub := api.NewHub()
	go hub.Run()
	defer hub.Stop()

	service := api.NewReportService(gen, sink, hub, cfg.Report.OutputDir)

	// Audit trail is optional: enabled only when a database is configured.
	if cfg.Database.DSN != "" {
		db, err := store.Open(ctx, cfg.Database.DSN)
		if err != nil {
			fmt.Printf("Failed to connect to audit database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := store.NewAuditRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			fmt.Printf("Failed to migrate audit schema: %v\n", err)
			os.Exit(1)
		}

		if cfg.Database.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Database.RetentionDays)
			purged, err := repo.PurgeOlderThan(ctx, cutoff)
			if err != nil {
				fmt.Printf("Warning: audit purge failed: %v\n", err)
			} else if purged > 0 {
				fmt.Printf("Audit: purged %d entries older than %d days\n", purged, cfg.Database.RetentionDays)
			}
		}

		service.Audit = repo
		fmt.Println("Audit: enabled")
	} else {
		fmt.Println("Audit: disabled (no database configured)")
	}

	server := api.NewServer(&api.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout(),
		WriteTimeout:  cfg.Server.WriteTimeout(),
		CORSOrigins:   cfg.Server.AllowedOrigins,
		EnableLogging: true,
	})
	service.Register(server.Router())

	if err := server.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Listening on http://%s\n", server.Address())
	fmt.Printf("Artifacts: %s\n", cfg.Report.OutputDir)
	fmt.Println()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
	fmt.Println("Goodbye!")
}
