package flow

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// btsHeader is the fixed-layout front of a TurbSim full-field binary file,
// little-endian on disk.
type btsHeader struct {
	ID                 int16
	NZ, NY, NTower, NT int32
	DZ, DY, Dt         float32
	UHub, HubHt, ZBot  float32
	Slope, Offset      [3]float32
}

func readBTSHeader(r io.Reader) (*btsHeader, error) {
	var h btsHeader
	fields := []any{
		&h.ID, &h.NZ, &h.NY, &h.NTower, &h.NT,
		&h.DZ, &h.DY, &h.Dt, &h.UHub, &h.HubHt, &h.ZBot,
		&h.Slope[0], &h.Offset[0],
		&h.Slope[1], &h.Offset[1],
		&h.Slope[2], &h.Offset[2],
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	var nchar int32
	if err := binary.Read(r, binary.LittleEndian, &nchar); err != nil {
		return nil, err
	}
	if nchar < 0 || nchar > 1<<16 {
		return nil, fmt.Errorf("description length %d out of range", nchar)
	}
	if _, err := io.CopyN(io.Discard, r, int64(nchar)); err != nil {
		return nil, err
	}
	return &h, nil
}

// ReadBTS extracts the hub-height flow speed magnitude series from a TurbSim
// .bts file. The grid point nearest the hub (center lateral column, vertical
// row closest to the recorded hub height) supplies the three velocity
// components; the series holds their Euclidean magnitude per time step. The
// series time step comes from the file header.
func ReadBTS(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flow: open %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<16)
	h, err := readBTSHeader(r)
	if err != nil {
		return nil, fmt.Errorf("flow: %q header: %w", path, err)
	}
	if h.NZ <= 0 || h.NY <= 0 || h.NT <= 0 || h.Dt <= 0 {
		return nil, fmt.Errorf("flow: %q has degenerate grid %dx%d nt=%d dt=%f",
			path, h.NZ, h.NY, h.NT, h.Dt)
	}
	for k := 0; k < 3; k++ {
		if h.Slope[k] == 0 {
			return nil, fmt.Errorf("flow: %q has zero slope for component %d", path, k)
		}
	}

	// Vertical row nearest the hub height.
	hubIZ := 0
	best := math.Inf(1)
	for iz := 0; iz < int(h.NZ); iz++ {
		z := float64(h.ZBot) + float64(iz)*float64(h.DZ)
		if d := math.Abs(z - float64(h.HubHt)); d < best {
			best = d
			hubIZ = iz
		}
	}
	hubIY := int(h.NY) / 2

	grid := make([]int16, int(h.NZ)*int(h.NY)*3)
	tower := int64(h.NTower) * 3 * 2
	samples := make([]float64, h.NT)
	for it := 0; it < int(h.NT); it++ {
		if err := binary.Read(r, binary.LittleEndian, grid); err != nil {
			return nil, fmt.Errorf("flow: %q time step %d: %w", path, it, err)
		}
		if tower > 0 {
			if _, err := io.CopyN(io.Discard, r, tower); err != nil {
				return nil, fmt.Errorf("flow: %q tower block %d: %w", path, it, err)
			}
		}
		base := (hubIZ*int(h.NY) + hubIY) * 3
		var sum float64
		for k := 0; k < 3; k++ {
			v := (float64(grid[base+k]) - float64(h.Offset[k])) / float64(h.Slope[k])
			sum += v * v
		}
		samples[it] = math.Sqrt(sum)
	}
	return &Series{Samples: samples, Dt: float64(h.Dt)}, nil
}
