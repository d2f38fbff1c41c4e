package report

import "io"

// MAX_TEXT_LINE bounds buffered Varicode text before it is published.
const MAX_TEXT_LINE = 64

// TextRecord is a line of decoded Varicode text.
type TextRecord struct {
	Text string `json:"text" yaml:"text"`
}

type textWriter struct {
	r *Reporter
}

// VaricodeText returns a writer for decoded Varicode output. Text is
// published a line at a time, or every MAX_TEXT_LINE bytes without a
// newline.
func (r *Reporter) VaricodeText() io.Writer {
	return textWriter{r: r}
}

func (w textWriter) Write(p []byte) (int, error) {
	r := w.r
	r.mu.Lock()
	defer r.mu.Unlock()

	if m := r.sinks.Metrics; m != nil {
		m.VaricodeCharacters(len(p))
	}
	for _, c := range p {
		if c == '\n' {
			r.flushText()
			continue
		}
		r.text = append(r.text, c)
		if len(r.text) >= MAX_TEXT_LINE {
			r.flushText()
		}
	}
	return len(p), nil
}

// flushText publishes the buffered line. The caller holds r.mu.
func (r *Reporter) flushText() {
	if len(r.text) == 0 {
		return
	}
	rec := TextRecord{Text: string(r.text)}
	r.text = r.text[:0]

	r.log.Debug("varicode text", "text", rec.Text)
	r.publish("varicode", "text", rec)
}
