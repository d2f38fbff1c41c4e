package dstar

import (
	"fmt"
	"io"
	"os"
)

// AUDIO_MAGIC opens every voice file; VOICE_BYTES per superframe follow.
const AUDIO_MAGIC = ".dst"

// VoiceWriter writes decoded AMBE voice payloads behind the AUDIO_MAGIC
// header.
type VoiceWriter struct {
	w       io.Writer
	closer  io.Closer
	written int64
}

// NewVoiceWriter writes the magic to w and returns a writer for payloads.
func NewVoiceWriter(w io.Writer) (*VoiceWriter, error) {
	if _, err := io.WriteString(w, AUDIO_MAGIC); err != nil {
		return nil, fmt.Errorf("failed to write voice file header: %w", err)
	}
	return &VoiceWriter{w: w}, nil
}

// CreateVoiceFile creates or truncates path and writes the magic.
func CreateVoiceFile(path string) (*VoiceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create voice file %s: %w", path, err)
	}
	vw, err := NewVoiceWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	vw.closer = f
	return vw, nil
}

// Write appends one payload.
func (v *VoiceWriter) Write(p []byte) (int, error) {
	n, err := v.w.Write(p)
	v.written += int64(n)
	return n, err
}

// Written returns the number of payload bytes written, magic excluded.
func (v *VoiceWriter) Written() int64 {
	return v.written
}

// Close closes the underlying file, if CreateVoiceFile opened it.
func (v *VoiceWriter) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer.Close()
}
