// Package logger wires the global zerolog logger: console or JSON
// output on stderr, optional rotating file sink, optional Axiom
// shipping for info-and-above events.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/local/pdfstitch/internal/config"
)

var shipper *axiomShipper

// Init configures the global logger from cfg. Verbose forces debug
// level regardless of the configured one.
func Init(cfg config.LoggingConfig, ax config.AxiomConfig, verbose bool) error {
	var writers []io.Writer

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}

	// Console goes to stderr so command output on stdout stays clean.
	if cfg.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, os.Stderr)
	}

	if ax.Send && ax.APIKey != "" {
		s, err := newAxiomShipper(ax)
		if err != nil {
			fmt.Fprintf(os.Stderr, "axiom shipping disabled: %v\n", err)
		} else {
			shipper = s
			writers = append(writers, s)
		}
	}

	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(io.MultiWriter(writers...)).Level(lvl).With().Timestamp().Logger()
	return nil
}

// Close flushes the Axiom shipper if one is running.
func Close() {
	if shipper != nil {
		shipper.stop()
	}
}

// axiomShipper buffers zerolog JSON lines and ingests them in batches.
// Debug events stay local.
type axiomShipper struct {
	client  *axiom.Client
	dataset string
	events  chan axiom.Event
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newAxiomShipper(cfg config.AxiomConfig) (*axiomShipper, error) {
	opts := []axiom.Option{axiom.SetToken(cfg.APIKey)}
	if cfg.OrgID != "" {
		opts = append(opts, axiom.SetOrganizationID(cfg.OrgID))
	}
	client, err := axiom.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &axiomShipper{
		client:  client,
		dataset: cfg.Dataset,
		events:  make(chan axiom.Event, 1024),
		cancel:  cancel,
	}
	every := cfg.FlushInterval
	if every <= 0 {
		every = 10 * time.Second
	}
	s.wg.Add(1)
	go s.run(ctx, every)
	return s, nil
}

func (s *axiomShipper) Write(p []byte) (int, error) {
	var ev map[string]any
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]any{"message": string(p), "level": "info"}
	}
	if lvl, _ := ev["level"].(string); lvl == "debug" {
		return len(p), nil
	}
	ev["service"] = "pdfstitch"
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	select {
	case s.events <- axiom.Event(ev):
	default:
		// drop when the buffer is full
	}
	return len(p), nil
}

func (s *axiomShipper) run(ctx context.Context, every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	batch := make([]axiom.Event, 0, 256)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ingestCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, _ = s.client.IngestEvents(ingestCtx, s.dataset, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ticker.C:
			flush()
		case ev := <-s.events:
			batch = append(batch, ev)
			if len(batch) >= 256 {
				flush()
			}
		}
	}
}

func (s *axiomShipper) stop() {
	s.cancel()
	s.wg.Wait()
}
