package network

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

const (
	MAX_DATAGRAM_SIZE = 65507
	POLL_INTERVAL     = 100 * time.Millisecond
	// Largest datagram a UDPSink sends.
	SINK_CHUNK_SIZE = 1024
)

// UDPSource reads bit samples from datagrams. It implements io.Reader and
// returns io.EOF once its context is done. Datagrams larger than the
// caller's buffer are delivered across several reads.
type UDPSource struct {
	ctx     context.Context
	socket  *UDPSocket
	buf     []byte
	pending []byte
	peer    *net.UDPAddr
	packets uint64
	log     *log.Logger
}

// ListenUDPSource binds udp://host:port and returns a source.
func ListenUDPSource(ctx context.Context, location string, logger *log.Logger) (*UDPSource, error) {
	host, port, err := ParseUDPLocation(location)
	if err != nil {
		return nil, err
	}
	socket := NewUDPSocket(host, port, logger)
	if err := socket.Open(); err != nil {
		return nil, err
	}
	socket.log.Info("listening for bit samples", "addr", socket.LocalAddr().String())
	return &UDPSource{
		ctx:    ctx,
		socket: socket,
		buf:    make([]byte, MAX_DATAGRAM_SIZE),
		log:    socket.log,
	}, nil
}

// Read blocks until a datagram arrives or the context is done.
func (s *UDPSource) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.ctx.Err() != nil {
			return 0, io.EOF
		}
		n, addr, err := s.socket.ReadTimeout(s.buf, POLL_INTERVAL)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		if s.peer == nil || !s.peer.IP.Equal(addr.IP) || s.peer.Port != addr.Port {
			s.log.Info("receiving from peer", "peer", addr.String())
			s.peer = addr
		}
		s.packets++
		s.pending = s.buf[:n]
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Packets returns the number of datagrams received.
func (s *UDPSource) Packets() uint64 {
	return s.packets
}

// Addr returns the bound address.
func (s *UDPSource) Addr() *net.UDPAddr {
	return s.socket.LocalAddr()
}

// Close closes the socket.
func (s *UDPSource) Close() error {
	return s.socket.Close()
}

// UDPSink sends written bytes to a fixed peer, at most SINK_CHUNK_SIZE
// bytes per datagram. It implements io.WriteCloser.
type UDPSink struct {
	socket *UDPSocket
	peer   *net.UDPAddr
}

// DialUDPSink opens an ephemeral socket that sends to udp://host:port.
func DialUDPSink(location string, logger *log.Logger) (*UDPSink, error) {
	host, port, err := ParseUDPLocation(location)
	if err != nil {
		return nil, err
	}
	if host == "" {
		host = "127.0.0.1"
	}
	peer, err := ParseUDPAddr(host, port)
	if err != nil {
		return nil, err
	}
	socket := NewUDPSocket("", 0, logger)
	if err := socket.Open(); err != nil {
		return nil, err
	}
	return &UDPSink{socket: socket, peer: peer}, nil
}

// Write sends p in one or more datagrams.
func (s *UDPSink) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := written + SINK_CHUNK_SIZE
		if end > len(p) {
			end = len(p)
		}
		if err := s.socket.Write(p[written:end], s.peer); err != nil {
			return written, err
		}
		written = end
	}
	return written, nil
}

// Close closes the socket.
func (s *UDPSink) Close() error {
	return s.socket.Close()
}
