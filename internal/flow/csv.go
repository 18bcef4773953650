package flow

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadCSV loads a single-column flow speed file sampled at dt. Blank lines are
// skipped; a non-numeric first line is treated as a header.
func ReadCSV(path string, dt float64) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flow: open %q: %w", path, err)
	}
	defer f.Close()

	var samples []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		// Only the first column matters even if the file carries extras.
		if i := strings.IndexByte(text, ','); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("flow: %q line %d: %w", path, line, err)
		}
		samples = append(samples, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("flow: read %q: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("flow: %q holds no samples", path)
	}
	return &Series{Samples: samples, Dt: dt}, nil
}
