// Package report fans decoded records out to a line writer, the database,
// an MQTT publisher and Prometheus metrics. Every sink is optional.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"gopkg.in/yaml.v3"

	"github.com/dbehnke/digimodes/internal/database"
	"github.com/dbehnke/digimodes/internal/metrics"
)

// Format selects how records are written.
type Format int

const (
	FormatText Format = iota
	FormatYAML
	FormatJSON
)

// ParseFormat converts a config or flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown record format %q", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// Publisher is satisfied by *publish.Publisher.
type Publisher interface {
	Publish(protocol, event string, record interface{})
}

// Options tune what the Reporter writes.
type Options struct {
	Format Format
	// TimestampFormat is a strftime pattern prefixed to text lines. Empty
	// disables the prefix.
	TimestampFormat    string
	PublishSuperframes bool
}

// Sinks are the optional destinations besides the line writer.
type Sinks struct {
	DB        *database.DB
	Publisher Publisher
	Metrics   *metrics.Metrics
}

// Event wraps a record in the yaml and json formats.
type Event struct {
	Time     time.Time   `json:"time" yaml:"time"`
	Protocol string      `json:"protocol" yaml:"protocol"`
	Event    string      `json:"event" yaml:"event"`
	Record   interface{} `json:"record" yaml:"record"`
}

// Reporter receives decoder events. Use CHU, DStar and VaricodeText to get
// the handler for each protocol.
type Reporter struct {
	mu sync.Mutex

	w       io.Writer
	opts    Options
	stamp   *strftime.Strftime
	now     func() time.Time
	log     *log.Logger
	sinks   Sinks
	frames  *database.CHUFrameRepository
	txs     *database.TransmissionRepository
	current *database.Transmission
	text    []byte
}

// New creates a Reporter writing records to w. w may be nil.
func New(w io.Writer, opts Options, sinks Sinks, logger *log.Logger) (*Reporter, error) {
	if logger == nil {
		logger = log.Default()
	}
	r := &Reporter{
		w:     w,
		opts:  opts,
		now:   time.Now,
		log:   logger.WithPrefix("report"),
		sinks: sinks,
	}

	if opts.TimestampFormat != "" {
		stamp, err := strftime.New(opts.TimestampFormat)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp format %q: %w", opts.TimestampFormat, err)
		}
		r.stamp = stamp
	}

	if sinks.DB != nil {
		r.frames = database.NewCHUFrameRepository(sinks.DB.GetDB())
		r.txs = database.NewTransmissionRepository(sinks.DB.GetDB())
	}

	return r, nil
}

// Close flushes buffered Varicode text and records any transmission still
// open when the stream ended.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushText()
	if r.current != nil && r.txs != nil {
		if err := r.txs.Upsert(r.current); err != nil {
			return fmt.Errorf("failed to save open transmission: %w", err)
		}
	}
	r.current = nil
	return nil
}

// emit writes one record. text is the line used by FormatText.
func (r *Reporter) emit(protocol, event string, record interface{}, text string) {
	if r.w == nil {
		return
	}

	t := r.now()
	var err error
	switch r.opts.Format {
	case FormatJSON:
		err = json.NewEncoder(r.w).Encode(Event{Time: t, Protocol: protocol, Event: event, Record: record})
	case FormatYAML:
		var data []byte
		data, err = yaml.Marshal(Event{Time: t, Protocol: protocol, Event: event, Record: record})
		if err == nil {
			_, err = io.WriteString(r.w, "---\n"+string(data))
		}
	default:
		line := text + "\n"
		if r.stamp != nil {
			line = r.stamp.FormatString(t) + " " + line
		}
		_, err = io.WriteString(r.w, line)
	}

	if err != nil {
		r.log.Warn("failed to write record", "protocol", protocol, "event", event, "err", err)
	}
}

func (r *Reporter) publish(protocol, event string, record interface{}) {
	if r.sinks.Publisher != nil {
		r.sinks.Publisher.Publish(protocol, event, record)
	}
}
