// Package sink implements the engine's output tagged-variant: discard,
// UDP, or buffered file. Grounded on spec.md §4.6's "None/Udp/File"
// contract and the teacher's own preference for buffered I/O on hot
// write paths (muxer.go buffers PAT/PMT bytes before writing).
package sink

import (
	"bufio"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/cesbo/eit-stream/internal/eitstreamerr"
)

// Sink receives complete byte blocks (always a multiple of 188 bytes;
// 1316 bytes for the UDP sink's natural unit) and forwards them to
// whatever output the operator configured.
type Sink interface {
	Send(b []byte) error
	Close() error
}

// Open parses an output URI (`udp://host:port` or `file://path`) and
// returns the matching Sink, per spec.md §6.
func Open(rawURI string) (Sink, error) {
	if rawURI == "" {
		return nil, eitstreamerr.New(eitstreamerr.KindMissingOutput, "output is required")
	}

	u, err := url.Parse(rawURI)
	if err != nil {
		return nil, eitstreamerr.Wrap(eitstreamerr.KindConfig, "parsing output uri", err)
	}

	switch u.Scheme {
	case "udp":
		return newUDPSink(u.Host)
	case "file":
		// "file://rel/path" parses rel as Host with url.Parse (no
		// leading slash), "file:///abs/path" parses it as Path.
		path := u.Opaque
		if path == "" {
			path = u.Host + u.Path
		}
		return newFileSink(path)
	default:
		return nil, eitstreamerr.New(eitstreamerr.KindUnknownOutput, fmt.Sprintf("unknown output scheme %q", u.Scheme))
	}
}

// NoneSink discards every block; used when no output is configured in
// tests or when the operator wants a dry run.
type NoneSink struct{}

func (NoneSink) Send(b []byte) error { return nil }
func (NoneSink) Close() error        { return nil }

// UDPSink sends one datagram per Send call over a connected UDP
// socket. A connected UDP socket in Go only ever talks to the dial
// target, which is exactly spec.md §4.6's "one datagram per call to a
// fixed destination" semantics.
type UDPSink struct {
	conn net.Conn
}

func newUDPSink(hostport string) (*UDPSink, error) {
	conn, err := net.Dial("udp", hostport)
	if err != nil {
		return nil, eitstreamerr.Wrap(eitstreamerr.KindIo, "dialing udp output", err)
	}
	return &UDPSink{conn: conn}, nil
}

func (s *UDPSink) Send(b []byte) error {
	if _, err := s.conn.Write(b); err != nil {
		return eitstreamerr.Wrap(eitstreamerr.KindIo, "udp send", err)
	}
	return nil
}

func (s *UDPSink) Close() error { return s.conn.Close() }

// FileSink appends blocks to a file through a buffered writer.
type FileSink struct {
	f *os.File
	w *bufio.Writer
}

func newFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, eitstreamerr.Wrap(eitstreamerr.KindIo, "opening file output", err)
	}
	return &FileSink{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSink) Send(b []byte) error {
	if _, err := s.w.Write(b); err != nil {
		return eitstreamerr.Wrap(eitstreamerr.KindIo, "file write", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return eitstreamerr.Wrap(eitstreamerr.KindIo, "flushing file output", err)
	}
	return s.f.Close()
}
