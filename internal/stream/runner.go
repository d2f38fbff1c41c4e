package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

const (
	DEFAULT_READ_SIZE   = 4096
	DEFAULT_OUTPUT_SIZE = 1024
)

// RunnerConfig sizes a Runner. Zero values pick defaults.
type RunnerConfig struct {
	Name         string
	BufferSize   int // input window capacity in items
	ReadSize     int // bytes per source read
	OutputSize   int // output items offered to each Work call
	InputFormat  Format
	OutputFormat Format
}

// Stats counts what a Runner has moved so far.
type Stats struct {
	Read      uint64 // items accepted from the source
	Consumed  uint64
	Produced  uint64
	Calls     uint64
	Overflows uint64
}

// Runner is the external scheduler for a single Block. It is not safe for
// concurrent use; one goroutine calls Run.
type Runner struct {
	name     string
	block    Block
	cfg      RunnerConfig
	buffer   *WindowBuffer
	out      []uint8
	encoded  []byte
	log      *log.Logger
	observer Observer
	stats    Stats
}

// NewRunner sizes the buffers for block. The input window is made large
// enough for at least twice what the block forecasts for one output buffer,
// so a block is never starved by the buffer itself.
func NewRunner(block Block, cfg RunnerConfig, logger *log.Logger) *Runner {
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = DEFAULT_READ_SIZE
	}
	if cfg.OutputSize <= 0 {
		cfg.OutputSize = DEFAULT_OUTPUT_SIZE
	}
	if need := 2 * block.Forecast(cfg.OutputSize); cfg.BufferSize < need {
		cfg.BufferSize = need
	}
	if cfg.BufferSize < cfg.ReadSize {
		cfg.BufferSize = cfg.ReadSize
	}
	if cfg.Name == "" {
		cfg.Name = "block"
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		name:    cfg.Name,
		block:   block,
		cfg:     cfg,
		buffer:  NewWindowBuffer(cfg.BufferSize, cfg.Name),
		out:     make([]uint8, cfg.OutputSize),
		encoded: make([]byte, cfg.OutputSize),
		log:     logger.WithPrefix(cfg.Name),
	}
}

// SetObserver attaches per-call accounting, such as metrics.
func (r *Runner) SetObserver(o Observer) {
	r.observer = o
}

// Stats returns the counters accumulated so far.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Run reads src until EOF or until ctx is done, feeding the block and
// writing its output to dst. dst may be nil for blocks without stream
// output. After EOF the block is called until it stops making progress.
func (r *Runner) Run(ctx context.Context, src io.Reader, dst io.Writer) error {
	raw := make([]byte, r.cfg.ReadSize)
	samples := make([]uint8, r.cfg.ReadSize)

	for {
		if err := r.drain(dst); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if !r.buffer.HasSpace(1) {
			r.overflow()
		}

		want := r.cfg.ReadSize
		if free := r.buffer.FreeSpace(); free < want {
			want = free
		}

		n, err := src.Read(raw[:want])
		if n > 0 {
			k := r.cfg.InputFormat.Decode(samples, raw[:n])
			r.buffer.AddData(samples[:k])
			r.stats.Read += uint64(k)
		}

		if errors.Is(err, io.EOF) {
			return r.drain(dst)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s input: %w", r.name, err)
		}
	}
}

// drain calls Work until it neither consumes nor produces.
func (r *Runner) drain(dst io.Writer) error {
	for {
		window := r.buffer.Window()
		consumed, produced := r.block.Work(window, r.out)
		r.stats.Calls++

		if consumed < 0 || consumed > len(window) || produced < 0 || produced > len(r.out) {
			return fmt.Errorf("%s returned consumed=%d produced=%d for window=%d output=%d",
				r.name, consumed, produced, len(window), len(r.out))
		}

		if produced > 0 && dst != nil {
			n := r.cfg.OutputFormat.Encode(r.encoded, r.out[:produced])
			if _, err := dst.Write(r.encoded[:n]); err != nil {
				return fmt.Errorf("failed to write %s output: %w", r.name, err)
			}
		}

		r.buffer.Consume(consumed)
		r.stats.Consumed += uint64(consumed)
		r.stats.Produced += uint64(produced)
		if r.observer != nil {
			r.observer.ObserveWork(r.name, consumed, produced)
		}

		if consumed == 0 && produced == 0 {
			return nil
		}
	}
}

// overflow drops the oldest half of a full window the block could not make
// progress on, so a stuck block cannot wedge the stream.
func (r *Runner) overflow() {
	dropped := r.buffer.DataSize() / 2
	if dropped == 0 {
		dropped = r.buffer.DataSize()
	}
	r.log.Warn("input buffer overflow, dropping samples", "dropped", dropped, "capacity", r.buffer.GetLength())
	r.buffer.Consume(dropped)
	r.stats.Overflows++
	if r.observer != nil {
		r.observer.ObserveOverflow(r.name, dropped)
	}
}
