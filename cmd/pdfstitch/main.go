package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstitch/internal/config"
	"github.com/local/pdfstitch/internal/dispatcher"
	"github.com/local/pdfstitch/internal/fetch"
	"github.com/local/pdfstitch/internal/filetype"
	"github.com/local/pdfstitch/internal/imagepdf"
	"github.com/local/pdfstitch/internal/logger"
	"github.com/local/pdfstitch/internal/metrics"
	"github.com/local/pdfstitch/internal/pdfops"
	"github.com/local/pdfstitch/internal/server"
	"github.com/local/pdfstitch/internal/statuscheck"
	"github.com/local/pdfstitch/internal/stitcher"
	"github.com/local/pdfstitch/internal/store"
)

var cli struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`

	Stitch struct {
		Input     []string `short:"i" required:"" help:"Input file or ref, repeated; assembled in the given order"`
		Output    string   `short:"o" required:"" help:"Output path or s3:// ref"`
		PageSize  string   `help:"Page size for image pages (A4, Letter, Legal)"`
		Landscape bool     `help:"Lay image pages out in landscape"`
		Strict    bool     `help:"Refuse inputs whose content disagrees with their extension"`
		DryRun    bool     `help:"Print the assembly plan without writing anything"`
	} `cmd:"" help:"Assemble documents and images into one PDF"`

	Info struct {
		Files []string `arg:"" help:"Files to describe"`
	} `cmd:"" help:"Describe files: kind, content type, size, pages"`

	Dir struct {
		Directory string `arg:"" help:"Directory to scan"`
		Output    string `help:"Output file, resolved under DIRECTORY when relative" default:"combined.pdf"`
		Pattern   string `help:"Glob applied to file names" default:"*"`
		PageSize  string `help:"Page size for image pages (A4, Letter, Legal)"`
		Landscape bool   `help:"Lay image pages out in landscape"`
		DryRun    bool   `help:"Print the assembly plan without writing anything"`
	} `cmd:"" help:"Assemble every supported file in a directory, sorted by name"`

	Serve struct {
		Addr string `help:"Listen address, overrides PORT"`
	} `cmd:"" help:"Run the stitch HTTP service"`
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	kctx := kong.Parse(&cli,
		kong.Name("pdfstitch"),
		kong.Description("Stitches paginated documents and images into a single PDF."),
		kong.UsageOnError(),
	)

	if err := logger.Init(cfg.Logging, cfg.Axiom, cli.Verbose); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logging:", err)
		os.Exit(1)
	}

	var err error
	switch kctx.Command() {
	case "stitch":
		err = runStitch(cfg)
	case "info <files>":
		err = runInfo(cli.Info.Files)
	case "dir <directory>":
		err = runDir(cfg)
	case "serve":
		err = runServe(cfg)
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}

	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

func runStitch(cfg config.Config) error {
	opts, err := assemblyOptions(cfg, cli.Stitch.PageSize, cli.Stitch.Landscape)
	if err != nil {
		log.Error().Err(err).Msg("invalid page size")
		return err
	}
	opts.inputs = cli.Stitch.Input
	opts.output = cli.Stitch.Output
	opts.strict = cli.Stitch.Strict || cfg.Stitch.Strict
	opts.dryRun = cli.Stitch.DryRun
	return assemble(cfg, opts)
}

func runDir(cfg config.Config) error {
	dir := cli.Dir.Directory
	output := cli.Dir.Output
	if !strings.HasPrefix(output, "s3://") && !filepath.IsAbs(output) {
		output = filepath.Join(dir, output)
	}

	inputs, err := collectDirInputs(dir, cli.Dir.Pattern, output)
	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("nothing to stitch")
		return err
	}

	opts, err := assemblyOptions(cfg, cli.Dir.PageSize, cli.Dir.Landscape)
	if err != nil {
		log.Error().Err(err).Msg("invalid page size")
		return err
	}
	opts.inputs = inputs
	opts.output = output
	opts.strict = cfg.Stitch.Strict
	opts.dryRun = cli.Dir.DryRun
	return assemble(cfg, opts)
}

// collectDirInputs gathers the supported files in dir matching pattern,
// sorted by name. The output file is excluded so a rerun never stitches
// its own previous result back in.
func collectDirInputs(dir, pattern, output string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var inputs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		if !ok || filetype.Classify(e.Name()) == filetype.KindUnsupported {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if path == output {
			continue
		}
		inputs = append(inputs, path)
	}
	sort.Strings(inputs)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no supported files match %q in %s", pattern, dir)
	}
	return inputs, nil
}

type assembleOpts struct {
	inputs []string
	output string
	size   imagepdf.PageSize
	strict bool
	dryRun bool
}

func assemblyOptions(cfg config.Config, pageSize string, landscape bool) (assembleOpts, error) {
	if pageSize == "" {
		pageSize = cfg.Stitch.PageSize
	}
	size, err := imagepdf.SizeByName(pageSize)
	if err != nil {
		return assembleOpts{}, err
	}
	if landscape || cfg.Stitch.Landscape {
		size = size.Landscape()
	}
	return assembleOpts{size: size}, nil
}

// validateInputs runs the existence and strict-content checks a dry run
// shares with a real run. Remote refs pass through unchecked; only a
// real run fetches them.
func validateInputs(inputs []string, strict bool) error {
	for _, ref := range inputs {
		if fetch.IsRemote(ref) {
			continue
		}
		local := strings.TrimPrefix(ref, "file://")
		if _, err := filetype.Stat(local); err != nil {
			return fmt.Errorf("input %s: %w", ref, err)
		}
		if strict {
			if err := filetype.VerifyContent(local); err != nil {
				return fmt.Errorf("input %s: %w", ref, err)
			}
		}
	}
	return nil
}

func assemble(cfg config.Config, opts assembleOpts) error {
	if opts.dryRun {
		if err := validateInputs(opts.inputs, opts.strict); err != nil {
			log.Error().Err(err).Msg("invalid input")
			return err
		}
		fmt.Printf("assembly plan (%d inputs):\n", len(opts.inputs))
		for i, ref := range opts.inputs {
			fmt.Printf("  %2d. %-11s %s\n", i+1, filetype.Classify(ref), ref)
		}
		fmt.Printf("output: %s (image pages on %.0fx%.0f pt)\n", opts.output, opts.size.Width, opts.size.Height)
		return nil
	}

	ctx := context.Background()
	resolver := fetch.New(fetch.Options{TempDir: cfg.Stitch.TempDir, HTTPTimeout: cfg.Fetch.HTTPTimeout})

	asm := stitcher.New(stitcher.Options{Page: opts.size, TempDir: cfg.Stitch.TempDir})
	defer asm.Close()

	for _, ref := range opts.inputs {
		local, cleanup, err := resolver.Resolve(ctx, ref)
		if err != nil {
			log.Error().Err(err).Str("input", ref).Msg("failed to resolve input")
			return err
		}
		defer cleanup()
		if opts.strict {
			if err := filetype.VerifyContent(local); err != nil {
				log.Error().Err(err).Str("input", ref).Msg("content check failed")
				return err
			}
		}
		if err := asm.AddFile(local); err != nil {
			log.Error().Err(err).Str("input", ref).Msg("failed to queue input")
			return err
		}
	}

	// Remote outputs are assembled locally and uploaded afterwards.
	local := opts.output
	remote := strings.HasPrefix(opts.output, "s3://")
	if remote {
		tmp, err := os.CreateTemp(cfg.Stitch.TempDir, "pdfstitch-out-*.pdf")
		if err != nil {
			log.Error().Err(err).Msg("failed to create staging file")
			return err
		}
		local = tmp.Name()
		tmp.Close()
		defer os.Remove(local)
	} else if dir := filepath.Dir(local); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("failed to create output directory")
			return err
		}
	}

	if _, err := asm.Stitch(local); err != nil {
		log.Error().Err(err).Msg("stitch failed")
		return err
	}
	if remote {
		if err := fetch.Upload(ctx, opts.output, local); err != nil {
			log.Error().Err(err).Str("output", opts.output).Msg("upload failed")
			return err
		}
	}

	pages, err := pdfops.PageCount(local)
	if err != nil {
		log.Error().Err(err).Msg("failed to count output pages")
		return err
	}
	fmt.Printf("wrote %s (%d pages from %d inputs)\n", opts.output, pages, len(opts.inputs))
	return nil
}

func runInfo(files []string) error {
	var failed bool
	for _, path := range files {
		info, err := filetype.Describe(path)
		if err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Println(info.Name)
		fmt.Printf("  kind:     %s\n", info.Kind)
		if mime, err := filetype.Sniff(path); err == nil {
			fmt.Printf("  content:  %s\n", mime)
			if got := filetype.KindOfMIME(mime); got != info.Kind {
				fmt.Printf("  warning:  content looks like %s, extension says %s\n", got, info.Kind)
			}
		}
		fmt.Printf("  size:     %s\n", info.SizeHuman)
		fmt.Printf("  modified: %s\n", info.Modified.Format(time.RFC3339))
		if info.Kind == filetype.KindDocument {
			di, err := pdfops.Inspect(path)
			if err != nil {
				failed = true
				fmt.Fprintf(os.Stderr, "  pages:    unreadable: %v\n", err)
				continue
			}
			fmt.Printf("  pages:    %d\n", di.PageCount)
			if len(di.Pages) > 0 {
				fmt.Printf("  page size: %.0fx%.0f pt\n", di.Pages[0].Width, di.Pages[0].Height)
			}
		}
	}
	if failed {
		return errors.New("some files could not be described")
	}
	return nil
}

func runServe(cfg config.Config) error {
	metrics.Init()

	var st store.StatusStore
	var pinger statuscheck.RedisPinger
	if cfg.Server.RedisURL != "" {
		rs, err := store.NewRedis(cfg.Server.RedisURL, cfg.Server.StatusTTL)
		if err != nil {
			log.Error().Err(err).Msg("failed to init redis status store")
			return err
		}
		st = rs
		pinger = rs
	} else {
		st = store.NewMemory()
	}
	defer st.Close()

	pool := dispatcher.New(dispatcher.Config{Concurrency: cfg.Server.Concurrency, Backlog: cfg.Server.QueueSize})
	pool.Start()
	defer pool.Stop()

	srv, err := server.New(cfg, server.Dependencies{
		Store:    st,
		Pool:     pool,
		Resolver: fetch.New(fetch.Options{TempDir: cfg.Stitch.TempDir, HTTPTimeout: cfg.Fetch.HTTPTimeout}),
		Checker:  statuscheck.New(statuscheck.Options{Redis: pinger, TempDir: cfg.Stitch.TempDir, SpoolDir: cfg.Server.SpoolDir}),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to init server")
		return err
	}

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	addr := cli.Serve.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Server.Port)
	}
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Info().Msg("shutdown complete")
	return nil
}
