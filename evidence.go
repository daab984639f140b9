package filelock

import (
	"os"
	"strings"
	"time"

	"github.com/enverbisevac/filelock/errors"
	"github.com/enverbisevac/filelock/timeutil"
)

// errCorruptEvidence marks a lock file whose contents cannot be parsed.
// Unreadable evidence is reclaimed like a stale lock: a half-written or
// damaged file must never hold the resource forever.
var errCorruptEvidence = errors.New("corrupt lock evidence")

// evidence is the on-disk record proving a link-based lock is alive:
// the owner token on the first line, the last refresh time on the
// second. The format is plain text so any process sharing the
// filesystem can parse it.
type evidence struct {
	Token     string
	Timestamp time.Time
}

func marshalEvidence(ev evidence) []byte {
	return []byte(ev.Token + "\n" + timeutil.Format(ev.Timestamp) + "\n")
}

func parseEvidence(data []byte) (evidence, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 || lines[0] == "" {
		return evidence{}, errCorruptEvidence
	}

	ts, err := timeutil.DefaultParserFunc(lines[1])
	if err != nil {
		return evidence{}, errCorruptEvidence
	}

	return evidence{Token: lines[0], Timestamp: ts}, nil
}

// readEvidence returns the raw os error for missing files so callers
// can distinguish a vanished holder from corruption.
func readEvidence(path string) (evidence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return evidence{}, err
	}
	return parseEvidence(data)
}

func writeEvidence(path string, ev evidence) error {
	if err := os.WriteFile(path, marshalEvidence(ev), 0o644); err != nil {
		return errors.IO(err, "write lock evidence %s", path)
	}
	return nil
}
