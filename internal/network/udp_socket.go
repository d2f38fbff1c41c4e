// Package network carries bit samples over UDP: a source that feeds a
// Runner from datagrams and a sink that sends encoded output.
package network

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// UDPSocket provides non-blocking and deadline-bounded UDP I/O.
type UDPSocket struct {
	conn      *net.UDPConn
	address   string
	port      int
	localAddr *net.UDPAddr
	log       *log.Logger
}

// NewUDPSocket creates a UDP socket bound to address and port. An empty
// address binds every interface; port 0 picks an ephemeral port.
func NewUDPSocket(address string, port int, logger *log.Logger) *UDPSocket {
	if logger == nil {
		logger = log.Default()
	}
	return &UDPSocket{
		address: address,
		port:    port,
		log:     logger.WithPrefix("udp"),
	}
}

// Open creates the UDP socket.
func (s *UDPSocket) Open() error {
	s.localAddr = &net.UDPAddr{
		IP:   net.IPv4zero,
		Port: s.port,
	}
	if s.address != "" {
		ip, err := Lookup(s.address)
		if err != nil {
			return fmt.Errorf("invalid address %s: %w", s.address, err)
		}
		s.localAddr.IP = ip
	}

	conn, err := net.ListenUDP("udp4", s.localAddr)
	if err != nil {
		return fmt.Errorf("failed to open UDP socket on %s: %w", s.localAddr, err)
	}
	s.conn = conn

	s.log.Debug("socket bound", "addr", s.conn.LocalAddr().String())
	return nil
}

// LocalAddr returns the bound address, or nil before Open.
func (s *UDPSocket) LocalAddr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Read performs a non-blocking read. It returns 0 and a nil error when no
// datagram is waiting.
func (s *UDPSocket) Read(buffer []byte) (int, *net.UDPAddr, error) {
	return s.ReadTimeout(buffer, 0)
}

// ReadTimeout waits up to timeout for a datagram. It returns 0 and a nil
// error when none arrived in time.
func (s *UDPSocket) ReadTimeout(buffer []byte, timeout time.Duration) (int, *net.UDPAddr, error) {
	if s.conn == nil {
		return -1, nil, fmt.Errorf("socket not open")
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return -1, nil, err
	}

	n, addr, err := s.conn.ReadFromUDP(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, nil
		}
		return -1, nil, fmt.Errorf("UDP read failed: %w", err)
	}

	return n, addr, nil
}

// Write sends data to addr.
func (s *UDPSocket) Write(buffer []byte, addr *net.UDPAddr) error {
	if s.conn == nil {
		return fmt.Errorf("socket not open")
	}

	if _, err := s.conn.WriteToUDP(buffer, addr); err != nil {
		return fmt.Errorf("UDP write to %s failed: %w", addr, err)
	}

	return nil
}

// Close closes the UDP socket
func (s *UDPSocket) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.log.Debug("socket closed")
	return err
}

// Lookup resolves hostname to an IPv4 address
func Lookup(hostname string) (net.IP, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		return ip, nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return nil, err
	}

	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}

	return nil, fmt.Errorf("no IPv4 address found for %s", hostname)
}

// ParseUDPAddr convenience function to parse address:port strings
func ParseUDPAddr(address string, port int) (*net.UDPAddr, error) {
	ip, err := Lookup(address)
	if err != nil {
		return nil, err
	}

	return &net.UDPAddr{
		IP:   ip,
		Port: port,
	}, nil
}

// UDP_SCHEME prefixes UDP input and output locations.
const UDP_SCHEME = "udp://"

// IsUDP reports whether location names a UDP endpoint.
func IsUDP(location string) bool {
	return strings.HasPrefix(location, UDP_SCHEME)
}

// ParseUDPLocation splits udp://host:port. The host may be empty to mean
// every interface.
func ParseUDPLocation(location string) (string, int, error) {
	if !IsUDP(location) {
		return "", 0, fmt.Errorf("not a UDP location: %q", location)
	}
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(location, UDP_SCHEME))
	if err != nil {
		return "", 0, fmt.Errorf("invalid UDP location %q: %w", location, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid UDP port in %q", location)
	}
	return host, port, nil
}
