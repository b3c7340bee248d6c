// Package interp implements the command interpreter: a pure function
// over a command line and a Store, matching the wire protocol described
// in spec.md §6. It never panics. Every path ends in a stored value or one
// of the literal responses the protocol defines, except an `f` command
// cut short by cancellation, which returns an empty string.
package interp

import (
	"bufio"
	"context"
	"errors"
	"os"

	"github.com/demile-15/ConcurrentDB/pkg/tree"
)

// ResponseCap is the size, in bytes, of the response buffer; a response
// is truncated to at most ResponseCap-1 bytes.
const ResponseCap = 256

// Store is the subset of *tree.Tree the interpreter needs. Defined here,
// rather than depending on *tree.Tree directly, so command dispatch can
// be tested against a fake.
type Store interface {
	Query(key string) (string, bool)
	Insert(key, value string) error
	Delete(key string) error
}

const (
	illFormed  = "ill-formed command"
	added      = "added"
	duplicate  = "already in database"
	removed    = "removed"
	notPresent = "not in database"
	notFound   = "not found"
	badFile    = "bad file name"
	processed  = "file processed"
)

// Interpret parses one command line (verb in the first non-blank byte,
// whitespace-separated arguments after it) and returns the response.
// ctx is consulted between lines of an `f` command so a cancelled
// session's file processing stops promptly.
func Interpret(ctx context.Context, store Store, line string) string {
	if len(line) <= 1 {
		return illFormed
	}

	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	if i == len(line) {
		return illFormed
	}
	verb := line[i]
	rest := line[i+1:]

	switch verb {
	case 'q':
		key, _, ok := nextToken(rest)
		if !ok {
			return illFormed
		}
		value, found := store.Query(key)
		if !found {
			return notFound
		}
		return truncate(value)

	case 'a':
		key, rest, ok := nextToken(rest)
		if !ok {
			return illFormed
		}
		value, _, ok := nextToken(rest)
		if !ok {
			return illFormed
		}
		return truncate(respondAdd(store.Insert(key, value)))

	case 'd':
		key, _, ok := nextToken(rest)
		if !ok {
			return illFormed
		}
		if err := store.Delete(key); err != nil {
			return notPresent
		}
		return removed

	case 'f':
		path, _, ok := nextToken(rest)
		if !ok {
			return illFormed
		}
		return interpretFile(ctx, store, path)

	default:
		return illFormed
	}
}

func respondAdd(err error) string {
	switch {
	case err == nil:
		return added
	case errors.Is(err, tree.ErrDuplicate):
		return duplicate
	default:
		// Oversize key/value: a validation failure, not a database
		// outcome, so it is reported the same way a malformed command is.
		return illFormed
	}
}

// interpretFile interprets each line of path in turn, matching
// spec.md §4.C: the file is processed "silently" — intermediate
// responses are discarded — except that cancellation is checked between
// every line. On cancellation, processing stops and a blank response is
// returned; the caller (the session serve loop) is already tearing down.
func interpretFile(ctx context.Context, store Store, path string) string {
	f, err := os.Open(path)
	if err != nil {
		return badFile
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ""
		default:
		}
		Interpret(ctx, store, scanner.Text())
	}
	return processed
}

// nextToken skips leading whitespace and returns the next run of
// up to 255 non-whitespace bytes, plus whatever follows it.
func nextToken(s string) (token, rest string, ok bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	s = s[i:]
	if s == "" {
		return "", "", false
	}

	j := 0
	for j < len(s) && !isSpace(s[j]) {
		j++
	}
	token = s[:j]
	if len(token) > tree.MaxFieldLen-1 {
		token = token[:tree.MaxFieldLen-1]
	}
	return token, s[j:], true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}

func truncate(s string) string {
	if len(s) > ResponseCap-1 {
		return s[:ResponseCap-1]
	}
	return s
}
