package turbine

import (
	"github.com/sirupsen/logrus"

	"windsim/internal/params"
	"windsim/internal/run"
)

// Controller is the kω² torque law: extraction torque proportional to the
// square of the most recent rotor speed. It reads rotor speed through the
// history ring rather than the live parameter, which keeps the control input
// fixed at the last completed tick even when called mid-step.
type Controller struct {
	tauExtract *float64
	gain       *float64

	omegaHist *params.HistoryAccessor
	timeHist  *params.HistoryAccessor
	loopHist  *params.HistoryAccessor
}

func NewController() *Controller { return &Controller{} }

func (c *Controller) Bind(rc *run.Context) error {
	var err error
	if c.tauExtract, err = rc.Dynamic.BindDouble("tau_flow_extract"); err != nil {
		return err
	}
	if c.gain, err = rc.Dynamic.BindDouble("k"); err != nil {
		return err
	}
	if c.omegaHist, err = rc.Dynamic.History("omega"); err != nil {
		return err
	}
	if c.timeHist, err = rc.Dynamic.History("time_sec"); err != nil {
		return err
	}
	if c.loopHist, err = rc.Dynamic.History("total_loop_count"); err != nil {
		return err
	}
	return nil
}

func (c *Controller) Step(rc *run.Context) {
	c.omegaHist.Refresh()
	c.timeHist.Refresh()
	c.loopHist.Refresh()

	count := c.omegaHist.Valid()
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debugf("omega history has %d/%d values", count, c.omegaHist.Cap())
		for i := 0; i < count; i++ {
			logrus.Debugf("t[%d]=%.4f omega[%d]=%.6f loop[%d]=%d",
				i, c.timeHist.Double(i), i, c.omegaHist.Double(i), i, c.loopHist.Int(i))
		}
	}

	if count > 0 {
		w := c.omegaHist.Double(0)
		*c.tauExtract = *c.gain * w * w
	}
}

// DirectController is the same kω² law on the live rotor speed, for hosts
// that provide fresh measurements every call and configure no history rings.
type DirectController struct {
	omega      *float64
	tauExtract *float64
	gain       *float64
}

func NewDirectController() *DirectController { return &DirectController{} }

func (c *DirectController) Bind(rc *run.Context) error {
	var err error
	if c.omega, err = rc.Dynamic.BindDouble("omega"); err != nil {
		return err
	}
	if c.tauExtract, err = rc.Dynamic.BindDouble("tau_flow_extract"); err != nil {
		return err
	}
	if c.gain, err = rc.Dynamic.BindDouble("k"); err != nil {
		return err
	}
	return nil
}

func (c *DirectController) Step(rc *run.Context) {
	*c.tauExtract = *c.gain * *c.omega * *c.omega
}
