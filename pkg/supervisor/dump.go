package supervisor

import (
	"os"
	"strings"
)

// trimLeadingSpace drops leading whitespace from a `p [PATH]` argument,
// matching original_source/db.c's db_print: a path of only whitespace is
// treated as absent (dump to stdout) rather than as a literal filename.
func trimLeadingSpace(path string) string {
	return strings.TrimLeft(path, " \t\r\n")
}

func createFile(path string) (*os.File, error) {
	return os.Create(path)
}
