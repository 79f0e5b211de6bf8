package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/lanekeeper/internal/lane"
)

const maxLineBytes = 4 << 20

// scanFrames reads one frame of segments per line, [[x1,y1,x2,y2],...], and
// calls fn for each. Blank lines and lines starting with '#' are skipped.
func scanFrames(r io.Reader, fn func(segs []lane.Segment) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		segs, err := parseFrame(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := fn(segs); err != nil {
			return err
		}
	}
	return sc.Err()
}

func parseFrame(line string) ([]lane.Segment, error) {
	var raw [][]int
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, fmt.Errorf("invalid segment list: %w", err)
	}
	segs := make([]lane.Segment, len(raw))
	for i, r := range raw {
		if len(r) != 4 {
			return nil, fmt.Errorf("segment %d has %d values, want 4", i, len(r))
		}
		segs[i] = lane.Segment{X1: r[0], Y1: r[1], X2: r[2], Y2: r[3]}
	}
	return segs, nil
}
