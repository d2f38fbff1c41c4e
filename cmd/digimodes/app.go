package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dbehnke/digimodes/internal/chu"
	"github.com/dbehnke/digimodes/internal/config"
	"github.com/dbehnke/digimodes/internal/database"
	"github.com/dbehnke/digimodes/internal/dstar"
	"github.com/dbehnke/digimodes/internal/metrics"
	"github.com/dbehnke/digimodes/internal/network"
	"github.com/dbehnke/digimodes/internal/publish"
	"github.com/dbehnke/digimodes/internal/report"
	"github.com/dbehnke/digimodes/internal/stream"
	"github.com/dbehnke/digimodes/internal/varicode"
)

const STATUS_INTERVAL = 30 * time.Second

// progress counts runner activity with atomics so the status reporter can
// read it while the runner goroutine writes.
type progress struct {
	next      stream.Observer
	consumed  atomic.Uint64
	produced  atomic.Uint64
	overflows atomic.Uint64
}

func (p *progress) ObserveWork(block string, consumed, produced int) {
	p.consumed.Add(uint64(consumed))
	p.produced.Add(uint64(produced))
	if p.next != nil {
		p.next.ObserveWork(block, consumed, produced)
	}
}

func (p *progress) ObserveOverflow(block string, dropped int) {
	p.overflows.Add(1)
	if p.next != nil {
		p.next.ObserveOverflow(block, dropped)
	}
}

// App owns one decoder pipeline and every sink attached to it.
type App struct {
	cfg      *config.Config
	log      *log.Logger
	metrics  *metrics.Metrics
	db       *database.DB
	mqtt     *publish.Publisher
	reporter *report.Reporter
	voice    *dstar.VoiceWriter
	block    stream.Block
	runner   *stream.Runner
	progress *progress
	server   *http.Server

	src     io.Reader
	dst     io.Writer
	closers []io.Closer

	wg      sync.WaitGroup
	started time.Time
}

// resolveFormats fills in the sample formats a mode uses when the config
// leaves them empty.
func resolveFormats(cfg *config.Config) (stream.Format, stream.Format, error) {
	in, out := cfg.GetInputFormat(), cfg.GetOutputFormat()
	switch cfg.GetMode() {
	case config.MODE_VARICODE_RX:
		if out == "" {
			out = "raw"
		}
	case config.MODE_VARICODE_TX:
		if in == "" {
			in = "raw"
		}
	}

	inFmt, err := stream.ParseFormat(in)
	if err != nil {
		return 0, 0, fmt.Errorf("input format: %w", err)
	}
	outFmt, err := stream.ParseFormat(out)
	if err != nil {
		return 0, 0, fmt.Errorf("output format: %w", err)
	}
	return inFmt, outFmt, nil
}

// NewApp opens the input, output and optional sinks, and builds the block
// selected by [General] Mode.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		log:     logger,
		metrics: metrics.New(),
	}

	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.cfg

	inFmt, outFmt, err := resolveFormats(cfg)
	if err != nil {
		return err
	}
	recordFmt, err := report.ParseFormat(cfg.GetLogFormat())
	if err != nil {
		return err
	}

	if cfg.GetDatabaseEnabled() {
		if err := a.openDatabase(); err != nil {
			return err
		}
	}

	if cfg.GetMQTTEnabled() {
		a.mqtt, err = publish.New(publish.Config{
			Broker:      cfg.GetMQTTBroker(),
			ClientID:    cfg.GetMQTTClientID(),
			Username:    cfg.GetMQTTUsername(),
			Password:    cfg.GetMQTTPassword(),
			TopicPrefix: cfg.GetMQTTTopicPrefix(),
			QoS:         cfg.GetMQTTQoS(),
			Retain:      cfg.GetMQTTRetain(),
		}, a.log)
		if err != nil {
			return err
		}
	}

	out, err := a.openOutput(cfg.GetOutput())
	if err != nil {
		return err
	}
	a.src, err = a.openInput(ctx, cfg.GetInput())
	if err != nil {
		return err
	}

	// CHU and D-STAR have no stream output, so their records take the
	// output instead.
	var records io.Writer
	if cfg.GetMode() == config.MODE_CHU || cfg.GetMode() == config.MODE_DSTAR {
		records = out
	}

	sinks := report.Sinks{DB: a.db, Metrics: a.metrics}
	if a.mqtt != nil {
		sinks.Publisher = a.mqtt
	}
	a.reporter, err = report.New(records, report.Options{
		Format:             recordFmt,
		TimestampFormat:    cfg.GetLogTimestampFormat(),
		PublishSuperframes: cfg.GetMQTTPublishSuperframes(),
	}, sinks, a.log)
	if err != nil {
		return err
	}

	if err := a.buildBlock(out); err != nil {
		return err
	}

	a.progress = &progress{next: a.metrics}
	a.runner = stream.NewRunner(a.block, stream.RunnerConfig{
		Name:         cfg.GetMode(),
		BufferSize:   int(cfg.GetBufferSize()),
		InputFormat:  inFmt,
		OutputFormat: outFmt,
	}, a.log)
	a.runner.SetObserver(a.progress)

	return nil
}

func (a *App) openDatabase() error {
	path := a.cfg.GetDatabasePath()
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.NewDB(database.Config{
		Path:  path,
		Debug: a.cfg.GetDatabaseDebug(),
	}, a.log.WithPrefix("db"))
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

// buildBlock creates the decoder or encoder for the configured mode. out is
// where stream output goes.
func (a *App) buildBlock(out io.Writer) error {
	cfg := a.cfg
	switch cfg.GetMode() {
	case config.MODE_CHU:
		d := chu.NewDecoder(cfg.GetCHUSamplesPerBit(), a.reporter.CHU(), a.log)
		a.log.Info("CHU decoder ready", "samples_per_bit", cfg.GetCHUSamplesPerBit(),
			"message_samples", d.MessageLength())
		a.block = d

	case config.MODE_DSTAR:
		var voice io.Writer
		if path := cfg.GetDStarAudioFile(); path != "" {
			vw, err := dstar.CreateVoiceFile(path)
			if err != nil {
				return err
			}
			a.voice = vw
			voice = vw
		}
		a.block = dstar.NewDecoder(dstar.Options{
			GolayCorrection: cfg.GetDStarGolayCorrection(),
		}, a.reporter.DStar(), voice, a.log)

	case config.MODE_VARICODE_RX:
		a.block = varicode.NewRXDecoder(a.log)
		a.dst = io.MultiWriter(out, a.reporter.VaricodeText())

	case config.MODE_VARICODE_TX:
		a.block = varicode.NewTXEncoder()
		a.dst = out

	default:
		return fmt.Errorf("unknown mode %q", cfg.GetMode())
	}
	return nil
}

func (a *App) openInput(ctx context.Context, location string) (io.Reader, error) {
	switch {
	case location == "-" || location == "":
		return os.Stdin, nil
	case network.IsUDP(location):
		src, err := network.ListenUDPSource(ctx, location, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, src)
		return src, nil
	default:
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		a.closers = append(a.closers, f)
		return f, nil
	}
}

func (a *App) openOutput(location string) (io.Writer, error) {
	switch {
	case location == "-" || location == "":
		return os.Stdout, nil
	case network.IsUDP(location):
		sink, err := network.DialUDPSink(location, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sink)
		return sink, nil
	default:
		f, err := os.Create(location)
		if err != nil {
			return nil, fmt.Errorf("failed to create output: %w", err)
		}
		a.closers = append(a.closers, f)
		return f, nil
	}
}

// Run streams the input through the block until EOF or until ctx is done.
// Cancellation is a normal stop and returns nil.
func (a *App) Run(ctx context.Context) error {
	a.started = time.Now()

	if a.cfg.GetPrometheusEnabled() {
		a.startMetricsServer()
	}

	statusCtx, cancel := context.WithCancel(ctx)
	a.wg.Add(1)
	go a.statusReporter(statusCtx)

	err := a.runner.Run(ctx, a.src, a.dst)
	cancel()
	a.wg.Wait()

	a.printStats()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.server = &http.Server{
		Addr:              a.cfg.GetPrometheusListen(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.Info("serving metrics", "listen", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", "err", err)
		}
	}()
}

// statusReporter provides periodic status updates
func (a *App) statusReporter(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(STATUS_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.log.Info("status",
				"consumed", humanize.Comma(int64(a.progress.consumed.Load())),
				"produced", humanize.Comma(int64(a.progress.produced.Load())),
				"overflows", a.progress.overflows.Load(),
				"uptime", time.Since(a.started).Round(time.Second))
		}
	}
}

// printStats logs the totals for the whole run.
func (a *App) printStats() {
	s := a.runner.Stats()
	a.log.Info("stream totals",
		"read", humanize.Comma(int64(s.Read)),
		"consumed", humanize.Comma(int64(s.Consumed)),
		"produced", humanize.Comma(int64(s.Produced)),
		"calls", humanize.Comma(int64(s.Calls)),
		"overflows", s.Overflows,
		"elapsed", time.Since(a.started).Round(time.Millisecond))

	switch b := a.block.(type) {
	case *varicode.RXDecoder:
		a.log.Info("varicode", "decoded", humanize.Comma(int64(b.Decoded())), "dropped", b.Dropped())
	case *varicode.TXEncoder:
		a.log.Info("varicode", "dropped", b.Dropped())
	case *dstar.Decoder:
		if a.voice != nil {
			a.log.Info("voice file", "path", a.cfg.GetDStarAudioFile(),
				"size", humanize.Bytes(uint64(a.voice.Written())))
		}
	}
}

// Close releases everything NewApp opened. It is safe on a partly opened
// App.
func (a *App) Close() error {
	var errs []error

	if a.reporter != nil {
		errs = append(errs, a.reporter.Close())
	}
	if a.voice != nil {
		errs = append(errs, a.voice.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.server.Shutdown(ctx))
		cancel()
	}
	a.mqtt.Disconnect()
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}

	return errors.Join(errs...)
}
