package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	fileseekr "github.com/UBH-Fall-2024/FileSeekr"
	"github.com/UBH-Fall-2024/FileSeekr/config"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/indexing"
	"github.com/UBH-Fall-2024/FileSeekr/server"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fileseekr",
		Usage: "Semantic search over your local files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default: <user config dir>/fileseekr/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB index directory",
			},
			&cli.StringFlag{
				Name:  "embedding-provider",
				Usage: "Text embedding provider (hashing, openai, fastembed)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Index continuously and serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Address to listen on",
					},
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to listen on",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Run one indexing pass and exit",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N files",
						Value: 100,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the index",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
					},
				},
			},
			{
				Name:      "open",
				Usage:     "Open a file with its default application",
				ArgsUsage: "<path>",
				Action:    openCommand,
			},
			{
				Name:  "settings",
				Usage: "Show or change indexing settings",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the current settings",
						Action: settingsShowCommand,
					},
					{
						Name:   "set",
						Usage:  "Replace settings; omitted flags keep their current values",
						Action: settingsSetCommand,
						Flags: []cli.Flag{
							&cli.StringSliceFlag{
								Name:  "path",
								Usage: "Directory to index (repeatable)",
							},
							&cli.StringSliceFlag{
								Name:  "type",
								Usage: "Enabled file type: documents, images, videos, audio (repeatable)",
							},
							&cli.StringSliceFlag{
								Name:  "cloud",
								Usage: "Enabled cloud folder: dropbox, googleDrive, oneDrive (repeatable)",
							},
							&cli.BoolFlag{
								Name:  "ocr",
								Usage: "Run OCR on images",
							},
						},
					},
				},
			},
		},
	}
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := applyFlags(c, cfg); err != nil {
		return err
	}
	if err := setupLogger(cfg.Logging.Level); err != nil {
		return err
	}
	c.App.Metadata = map[string]any{configKey: cfg}
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("db") {
		cfg.Storage.Path = c.String("db")
		cfg.Storage.InMemory = false
	}
	if c.IsSet("embedding-provider") {
		cfg.Embeddings.Provider = c.String("embedding-provider")
	}
	if c.IsSet("embedding-host") {
		cfg.Embeddings.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embeddings.Model = c.String("embedding-model")
	}
	return cfg.Validate()
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func openEngine(ctx context.Context, c *cli.Context, opts ...fileseekr.EngineOption) (*fileseekr.Engine, error) {
	engine, err := fileseekr.NewEngine(ctx, configFrom(c), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func serveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	srv, err := server.NewServer(engine, engine, engine.Settings(),
		server.WithMaxHits(cfg.Search.MaxHits),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
		server.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr(), cfg.Server.ShutdownTimeout)
	})
	return g.Wait()
}

func indexCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := indexing.NewProgressMonitor(os.Stderr, c.Int("report-interval"))
	engine, err := openEngine(ctx, c, fileseekr.WithScanMonitor(progress))
	if err != nil {
		return err
	}
	defer engine.Close()

	current := engine.Settings().Current()
	if len(current.Paths) == 0 && len(current.CloudServices) == 0 {
		return fmt.Errorf("no paths configured: run 'fileseekr settings set --path <dir>' first")
	}

	report, err := engine.Scan(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, r *indexing.ScanReport) {
	fmt.Fprintf(w, "Roots: %s\n", strings.Join(r.Roots, ", "))
	for root, err := range r.RootErrors {
		fmt.Fprintf(w, "  unavailable: %s (%v)\n", root, err)
	}
	for _, svc := range r.MissingCloud {
		fmt.Fprintf(w, "  cloud folder not found: %s\n", svc)
	}
	fmt.Fprintf(w, "Discovered: %d  Indexed: %d  Failed: %d  Unchanged: %d  Deleted: %d\n",
		r.Discovered, r.Indexed, r.Failed, r.Unchanged, r.Deleted)
	fmt.Fprintf(w, "Duration: %s\n", r.Duration.Round(time.Millisecond))
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tTYPE\tSIZE\tPATH")
	for _, r := range results {
		fmt.Fprintf(tw, "%.3f\t%s\t%d\t%s\n", r.Similarity, r.FileType, r.SizeBytes, r.Path)
	}
	return tw.Flush()
}

func openCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one path is required")
	}
	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()
	return engine.Open(c.Context, c.Args().First())
}

func settingsShowCommand(c *cli.Context) error {
	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(describeSettings(engine.Settings().Current()))
}

func settingsSetCommand(c *cli.Context) error {
	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	next, err := buildSettings(c, engine.Settings().Current())
	if err != nil {
		return err
	}
	saved, err := engine.Settings().Save(c.Context, next)
	if err != nil {
		return err
	}
	fmt.Printf("Settings saved (version %d)\n", saved.Version)
	return nil
}

// buildSettings overlays the flags that were set onto current.
func buildSettings(c *cli.Context, current *core.Settings) (*core.Settings, error) {
	next := current.Clone()
	if c.IsSet("path") {
		next.Paths = c.StringSlice("path")
	}
	if c.IsSet("type") {
		next.FileTypes = nil
		for _, name := range c.StringSlice("type") {
			t, ok := core.ParseFileType(name)
			if !ok || t == core.FileTypeOther {
				return nil, fmt.Errorf("%w: %w: %q", core.ErrValidation, core.ErrInvalidFileType, name)
			}
			next.FileTypes = append(next.FileTypes, t)
		}
	}
	if c.IsSet("cloud") {
		next.CloudServices = nil
		for _, name := range c.StringSlice("cloud") {
			next.CloudServices = append(next.CloudServices, core.CloudService(name))
		}
	}
	if c.IsSet("ocr") {
		next.OCREnabled = c.Bool("ocr")
	}
	return next, nil
}

type settingsView struct {
	Paths         []string `json:"paths"`
	FileTypes     []string `json:"fileTypes"`
	CloudServices []string `json:"cloudServices"`
	OCREnabled    bool     `json:"ocrEnabled"`
	Version       uint64   `json:"version"`
}

func describeSettings(s *core.Settings) settingsView {
	v := settingsView{
		Paths:         s.Paths,
		FileTypes:     []string{},
		CloudServices: []string{},
		OCREnabled:    s.OCREnabled,
		Version:       s.Version,
	}
	for _, t := range s.FileTypes {
		v.FileTypes = append(v.FileTypes, t.String())
	}
	for _, svc := range s.CloudServices {
		v.CloudServices = append(v.CloudServices, string(svc))
	}
	return v
}

func setupLogger(levelStr string) error {
	// Map string to slog.Level
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
