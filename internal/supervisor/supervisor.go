// Package supervisor manages the run's companion processes: it starts the
// configured SCADA server child, polls child status without blocking the
// simulation loop, and notices when the launching parent goes away so
// orphaned workers shut themselves down.
package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// State classifies a polled child.
type State int

const (
	Running State = iota
	Exited
	Signaled
)

// Status is the decoded result of a non-blocking child poll.
type Status struct {
	State State
	// ExitCode is valid when State is Exited.
	ExitCode int
	// Signal is valid when State is Signaled.
	Signal unix.Signal
}

func (s Status) String() string {
	switch s.State {
	case Running:
		return "running"
	case Exited:
		return fmt.Sprintf("exited(%d)", s.ExitCode)
	case Signaled:
		return fmt.Sprintf("signaled(%s)", unix.SignalName(s.Signal))
	}
	return "unknown"
}

// ParentAlive reports whether the process that launched us is still our
// parent. When the parent dies the child is reparented, so a changed ppid
// means the supervisor above us is gone.
func ParentAlive(expected int) bool {
	return expected == 0 || os.Getppid() == expected
}

// Child is a process this run started and owns.
type Child struct {
	cmd *exec.Cmd
}

// Start launches a command line as a child process. The command is split on
// whitespace; no shell is involved.
func Start(command string) (*Child, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("supervisor: empty command")
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("supervisor: start %q: %w", parts[0], err)
	}
	logrus.Infof("started child %q pid %d", parts[0], cmd.Process.Pid)
	return &Child{cmd: cmd}, nil
}

func (c *Child) PID() int { return c.cmd.Process.Pid }

// Poll checks the child without blocking and decodes its state. After a
// non-Running result is returned once, the child is reaped and further polls
// report an error.
func Poll(pid int) (Status, error) {
	var ws unix.WaitStatus
	got, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	if err != nil {
		return Status{}, fmt.Errorf("supervisor: wait for %d: %w", pid, err)
	}
	if got == 0 {
		return Status{State: Running}, nil
	}
	if ws.Signaled() {
		return Status{State: Signaled, Signal: ws.Signal()}, nil
	}
	return Status{State: Exited, ExitCode: ws.ExitStatus()}, nil
}

// Stop asks the process to terminate and escalates to SIGKILL if it is still
// around when the grace period runs out.
func Stop(pid int, grace time.Duration) error {
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if err == unix.ESRCH {
			return nil
		}
		return fmt.Errorf("supervisor: terminate %d: %w", pid, err)
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		st, err := Poll(pid)
		if err != nil || st.State != Running {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	logrus.Warnf("child %d ignored SIGTERM, killing", pid)
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return fmt.Errorf("supervisor: kill %d: %w", pid, err)
	}
	// Reap the killed child so it does not linger as a zombie.
	for i := 0; i < 100; i++ {
		st, err := Poll(pid)
		if err != nil || st.State != Running {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("supervisor: child %d survived SIGKILL", pid)
}

// Wait blocks until the child exits and returns its status.
func (c *Child) Wait() (Status, error) {
	err := c.cmd.Wait()
	if err == nil {
		return Status{State: Exited, ExitCode: 0}, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(unix.WaitStatus); ok && ws.Signaled() {
			return Status{State: Signaled, Signal: ws.Signal()}, nil
		}
		return Status{State: Exited, ExitCode: ee.ExitCode()}, nil
	}
	return Status{}, err
}
