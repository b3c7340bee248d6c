// Package transport defines the duplex line transport the core requires
// of its external collaborator (spec.md §1, §6): a blocking read of one
// command line, a write of one response line, and half-close detection
// via an io.EOF-shaped error. Only the Transport interface is part of
// the core; the TCP implementation in tcp.go is the ambient plumbing
// that makes the repository runnable end to end.
package transport

// Transport is one client connection's duplex byte stream, already
// framed into lines.
type Transport interface {
	// ReadLine blocks for one newline-terminated command, returning it
	// with the trailing newline stripped. It returns an error (which
	// may be io.EOF, or any error produced by a concurrent Close) when
	// no further command is available.
	ReadLine() (string, error)

	// WriteLine writes one response line, appending the newline.
	WriteLine(line string) error

	// Close unblocks any in-flight ReadLine with an error and releases
	// the underlying connection. It is safe to call concurrently with
	// ReadLine/WriteLine and is idempotent.
	Close() error
}
