package flow

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"windsim/internal/run"
	"windsim/internal/shm"
)

// RegionName is the shared-memory segment the producer publishes the
// precomputed interpolation table under.
const RegionName = "windsim_flow_interp"

// gridEpsilon decides whether a query time sits exactly on the precomputed
// grid: within this distance of an integer step index the table sample is
// used verbatim.
const gridEpsilon = 1e-9

// Source describes one supported flow file format.
type Source struct {
	Ext string
	// Read loads the series; dt is the configured series step, which BTS
	// sources override from their header.
	Read func(path string, dt float64) (*Series, error)
}

// CSVSource reads single-column .csv flow files at the configured step.
var CSVSource = Source{Ext: ".csv", Read: ReadCSV}

// BTSSource reads TurbSim .bts files; the step comes from the file header.
var BTSSource = Source{Ext: ".bts", Read: func(path string, _ float64) (*Series, error) {
	return ReadBTS(path)
}}

// Cache serves the per-tick flow speed. The first run of a batch (or a
// single-run invocation) is the producer: it reads the source file, fills the
// interpolation table, and publishes it. Later worker runs attach to the
// published table and never touch the source file.
type Cache struct {
	src      Source
	producer bool

	series *Series
	table  []float64
	region *shm.Region
	total  float64

	flowSpeed *float64
	timeSec   *float64
	totalOut  *float64
	dtSec     *float64
	flowDt    *float64
	holdAtEnd bool
}

func NewCache(src Source) *Cache { return &Cache{src: src} }

// Bind resolves every parameter the cache needs, loads or attaches the table,
// and records the total covered time. persist, when non-nil, is called by the
// producer so flow_total_time survives into sibling worker processes.
func (c *Cache) Bind(rc *run.Context, persist func(name string, value float64) error) error {
	var err error
	if c.flowSpeed, err = rc.Dynamic.BindDouble("flow_speed"); err != nil {
		return err
	}
	if c.timeSec, err = rc.Dynamic.BindDouble("time_sec"); err != nil {
		return err
	}
	if c.totalOut, err = rc.Dynamic.BindDouble("flow_total_time"); err != nil {
		return err
	}
	if c.dtSec, err = rc.Fixed.BindDouble("dt_sec"); err != nil {
		return err
	}
	if c.flowDt, err = rc.Fixed.BindDouble("flow_time_step_dt"); err != nil {
		return err
	}
	if p, err := rc.Fixed.Get("flow_run_after_end"); err == nil {
		c.holdAtEnd = p.I > 0 || p.D > 0
	}

	firstRun, err := rc.Fixed.BindInt("data_processing_first_run")
	if err != nil {
		return err
	}
	singleRun, err := rc.Fixed.BindInt("data_processing_single_run_only")
	if err != nil {
		return err
	}
	c.producer = *firstRun != 0 || *singleRun != 0

	if c.producer {
		return c.produce(rc, persist)
	}
	return c.attach()
}

func (c *Cache) produce(rc *run.Context, persist func(string, float64) error) error {
	path, err := rc.Fixed.BindString("flow_gen_file_location_and_or_name")
	if err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(*path)); ext != c.src.Ext {
		return fmt.Errorf("flow: file %q must end in %s", *path, c.src.Ext)
	}
	c.series, err = c.src.Read(*path, *c.flowDt)
	if err != nil {
		return err
	}
	// BTS carries its own step; make the configured value agree.
	*c.flowDt = c.series.Dt

	c.total = c.series.TotalTime()
	*c.totalOut = c.total
	if persist != nil {
		if err := persist("flow_total_time", c.total); err != nil {
			return err
		}
	}

	steps := int(c.total / *c.dtSec)
	n := steps + 1
	c.region, err = shm.Create(RegionName, n*8)
	if err != nil {
		return err
	}
	c.table = c.region.Float64s()
	for i := 0; i < n; i++ {
		c.table[i] = c.series.Interpolate(float64(i) * *c.dtSec)
	}
	logrus.Debugf("flow: produced %d-sample table covering %.3f s", n, c.total)
	return nil
}

func (c *Cache) attach() error {
	c.total = *c.totalOut
	if c.total <= 0 {
		return fmt.Errorf("flow: worker found no published flow_total_time")
	}
	n := int(c.total / *c.dtSec) + 1
	region, err := shm.Attach(RegionName, n*8)
	if err != nil {
		return err
	}
	c.region = region
	c.table = region.Float64s()
	logrus.Debugf("flow: attached %d-sample table covering %.3f s", n, c.total)
	return nil
}

// Step writes the flow speed for the current simulation time into the bound
// flow_speed parameter. Off-grid times interpolate the raw series on the
// producer; workers, which carry only the table, use the nearest table sample.
func (c *Cache) Step(rc *run.Context) {
	if rc.Shutdown.Tripped() {
		return
	}
	t := *c.timeSec
	idxFp := t / *c.dtSec
	idx := math.Round(idxFp)
	last := float64(len(c.table) - 1)
	if idx < 0 {
		idx = 0
	} else if idx > last {
		idx = last
	}

	if math.Abs(idxFp-idx) < gridEpsilon {
		*c.flowSpeed = c.table[int(idx)]
	} else if c.producer {
		*c.flowSpeed = c.series.Interpolate(t)
	} else {
		*c.flowSpeed = c.table[int(idx)]
	}

	if t > c.total {
		if c.holdAtEnd {
			*c.flowSpeed = c.table[int(last)]
		} else {
			rc.Shutdown.Trip(fmt.Sprintf(
				"flow: requested time %.6f exceeds available %.6f", t, c.total))
		}
	}
}

// Close releases the mapping; the producer also removes the published region.
func (c *Cache) Close() error {
	if c.region == nil {
		return nil
	}
	err := c.region.Close()
	c.region = nil
	c.table = nil
	if c.producer {
		if derr := shm.Destroy(RegionName); err == nil {
			err = derr
		}
	}
	return err
}
