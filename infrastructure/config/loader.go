// Package config loads the line-oriented queue entry file described in
// spec §6 "Configuration file":
//
//	QUEUE_NUM:DIRECTION:NAME:SECRET[:MODE][:MTU]
//
// The loader is the one place a raw secret token exists; a byte copy of
// it is hashed into the entry's key and then zeroed. The string the
// line was read into is not zeroed.
package config

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sh0rch/nf-wgobfs/domain/config"
	"github.com/sh0rch/nf-wgobfs/infrastructure/cryptography/mem"
)

// DefaultPath is used when NF_WGOBFS_CONF is unset.
const DefaultPath = "/etc/nf_wgobfs/config"

// EnvPath is the environment variable overriding DefaultPath.
const EnvPath = "NF_WGOBFS_CONF"

// ResolvePath returns the configured path, honoring EnvPath.
func ResolvePath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and parses path into a validated, duplicate-free set of
// entries.
func Load(path string) ([]config.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]config.Entry, error) {
	var entries []config.Entry
	seen := make(map[uint16]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
		if prev, dup := seen[entry.Queue]; dup {
			return nil, fmt.Errorf("config: line %d: queue %d duplicates line %d", lineNo, entry.Queue, prev)
		}
		seen[entry.Queue] = lineNo
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("config: no entries found")
	}
	return entries, nil
}

// stripComment removes everything from the first '#' on. A line that
// begins with '#' becomes empty and is skipped by the caller's
// blank-after-trim check.
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func parseLine(line string) (config.Entry, error) {
	fields := strings.Split(line, ":")
	if len(fields) < 4 || len(fields) > 6 {
		return config.Entry{}, fmt.Errorf("expected 4-6 colon-separated fields, got %d", len(fields))
	}

	queue, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return config.Entry{}, fmt.Errorf("invalid queue number %q: %w", fields[0], err)
	}

	dir, err := config.ParseDirection(fields[1])
	if err != nil {
		return config.Entry{}, err
	}

	name := fields[2]
	if name == "" {
		return config.Entry{}, fmt.Errorf("name must not be empty")
	}

	secret := []byte(fields[3])
	if len(secret) == 0 {
		return config.Entry{}, fmt.Errorf("secret must not be empty")
	}
	key := sha256.Sum256(secret)
	mem.ZeroBytes(secret)

	mode := config.Auto
	if len(fields) >= 5 && fields[4] != "" {
		mode, err = config.ParseCipherMode(fields[4])
		if err != nil {
			return config.Entry{}, err
		}
	}

	mtu := config.DefaultMTU
	if len(fields) == 6 && fields[5] != "" {
		mtu, err = strconv.Atoi(fields[5])
		if err != nil {
			return config.Entry{}, fmt.Errorf("invalid MTU %q: %w", fields[5], err)
		}
	}

	return config.Entry{
		Queue: uint16(queue),
		Dir:   dir,
		Name:  name,
		Key:   key,
		Mode:  mode,
		MTU:   mtu,
	}, nil
}
