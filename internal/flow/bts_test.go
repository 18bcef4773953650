package flow

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBTS builds a minimal TurbSim file: a 3x3 grid, no tower points, with
// the given u-component at the hub point per time step and v=w=0.
func writeBTS(t *testing.T, dt float32, hubU []float64) string {
	t.Helper()
	var buf bytes.Buffer
	w := func(v any) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }

	const nz, ny = int32(3), int32(3)
	w(int16(7))           // file id
	w(nz)                 // nz
	w(ny)                 // ny
	w(int32(0))           // tower points
	w(int32(len(hubU)))   // nt
	w(float32(10))        // dz
	w(float32(10))        // dy
	w(dt)                 // dt
	w(float32(8))         // u hub
	w(float32(30))        // hub height
	w(float32(20))        // z bottom: rows at 20, 30, 40 -> hub row is iz=1
	for k := 0; k < 3; k++ {
		w(float32(100)) // slope
		w(float32(50))  // offset
	}
	desc := "test field"
	w(int32(len(desc)))
	buf.WriteString(desc)

	for _, u := range hubU {
		for iz := int32(0); iz < nz; iz++ {
			for iy := int32(0); iy < ny; iy++ {
				val := 0.0
				if iz == 1 && iy == 1 {
					val = u
				}
				w(int16(math.Round(val*100 + 50))) // u, encoded
				w(int16(50))                       // v = 0
				w(int16(50))                       // w = 0
			}
		}
	}

	path := filepath.Join(t.TempDir(), "field.bts")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestReadBTSHubSeries(t *testing.T) {
	want := []float64{6.0, 6.5, 7.25}
	path := writeBTS(t, 0.05, want)

	s, err := ReadBTS(path)
	require.NoError(t, err)
	assert.Equal(t, 0.05, s.Dt, "dt must come from the header")
	require.Len(t, s.Samples, len(want))
	for i, u := range want {
		assert.InDelta(t, u, s.Samples[i], 1e-6, "time step %d", i)
	}
}

func TestReadBTSTruncated(t *testing.T) {
	path := writeBTS(t, 0.05, []float64{6, 6, 6})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	short := filepath.Join(t.TempDir(), "short.bts")
	require.NoError(t, os.WriteFile(short, data[:len(data)-10], 0o644))

	_, err = ReadBTS(short)
	assert.Error(t, err)
}
