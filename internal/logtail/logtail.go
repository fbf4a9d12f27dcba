package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed log record.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	// Fields holds the remaining attributes rendered as key=value, sorted by key.
	Fields []string
	// Raw is the original line. Lines that are not JSON only carry Raw.
	Raw string
}

// Parsed reports whether the line was a structured record.
func (e Entry) Parsed() bool { return e.Level != "" || e.Message != "" }

var skipKeys = map[string]bool{
	"time": true, "level": true, "msg": true, "component": true,
	"service": true, "hostname": true,
}

// Parse decodes a JSON log line. Anything else comes back as a raw entry.
func Parse(line string) Entry {
	entry := Entry{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
		return entry
	}

	if ts, ok := rec["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level, _ = rec["level"].(string)
	entry.Message, _ = rec["msg"].(string)
	entry.Component, _ = rec["component"].(string)

	for k, v := range rec {
		if skipKeys[k] {
			continue
		}
		entry.Fields = append(entry.Fields, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(entry.Fields)
	return entry
}

// ParseAll parses every line.
func ParseAll(lines []string) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		out = append(out, Parse(line))
	}
	return out
}

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

// AtLeast keeps entries whose level is at or above min. Raw lines are kept.
func AtLeast(entries []Entry, min string) []Entry {
	floor, ok := levelRank[strings.ToUpper(min)]
	if !ok {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		rank, known := levelRank[strings.ToUpper(e.Level)]
		if !known || rank >= floor {
			out = append(out, e)
		}
	}
	return out
}
