package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"windsim/internal/config"
	"windsim/internal/csvlog"
	"windsim/internal/dispatch"
	"windsim/internal/run"
	"windsim/internal/sim"
	"windsim/internal/store"
	"windsim/internal/supervisor"
	"windsim/internal/tui"
)

const version = "1.2.0"

var (
	dataDir      string
	configFile   string
	scenarioFile string
	logging      int
	parentPID    int
	singleRun    bool
	live         bool
	frameRate    int
	storeDir     string
	plotColumn   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "windsim",
		Short: "wind turbine control simulator",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".windsim", "run archive directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "system_config.csv", "system config CSV")
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "YAML scenario overlay")
	runCmd.Flags().IntVar(&logging, "logging", -1, "continuous dynamic-value logging (0/1, -1 uses config)")
	runCmd.Flags().IntVar(&parentPID, "parentpid", 0, "exit when this parent process dies")
	runCmd.Flags().BoolVar(&singleRun, "single-run", false, "stay in the loop even on a batch first run")
	runCmd.Flags().BoolVar(&live, "live", false, "render the live terminal view")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "live view frame rate")
	runCmd.Flags().StringVar(&storeDir, "store", "", "archive the finished run under this directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one column of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "omega", "column to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "dump an archived run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("windsim %s\n", version)
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := config.WriteDefault(configFile); err != nil {
			return err
		}
		logrus.Infof("wrote default config to %s", configFile)
	}
	stores, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if scenarioFile != "" {
		sc, err := config.LoadScenario(scenarioFile)
		if err != nil {
			return err
		}
		if err := sc.Apply(stores); err != nil {
			return err
		}
		logrus.Infof("applied scenario %q (%d overrides)", sc.Name, len(sc.Overrides))
	}

	if logging >= 0 {
		stores.Fixed.SetInt("dynamic_val_logging", logging)
	}
	if v, err := stores.Fixed.Get("dynamic_val_logging"); err == nil && v.I <= 0 {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	if singleRun {
		stores.Fixed.SetInt("data_processing_single_run_only", 1)
	}
	if parentPID > 0 {
		stores.Dynamic.SetInt("parent_pid", parentPID)
	}

	rc := run.NewContext(stores.Dynamic, stores.Fixed)
	rc.Args = run.Args{Program: os.Args[0], Argv: os.Args}

	sv, err := run.BuildStateVector(rc)
	if err != nil {
		return err
	}

	persist := func(name string, value float64) error {
		return config.UpdateDouble(configFile, name, value)
	}
	kernel, ok := dispatch.Build(rc, sv, persist)
	defer func() {
		if err := kernel.Close(); err != nil {
			logrus.Errorf("teardown: %v", err)
		}
	}()
	if !ok {
		return fmt.Errorf("dispatch failed: %s", rc.Shutdown.Reason())
	}

	cfg := sim.Config{Stages: kernel.Stages, SingleRun: singleRun}

	logPath := ""
	if p, err := stores.Fixed.BindString("dynamic_val_log_file"); err == nil {
		logPath = *p
	}
	if logPath != "" {
		logger, err := csvLogger(logPath, stores)
		if err != nil {
			return err
		}
		defer logger.Close()
		cfg.Logger = logger
	}

	observers := make([]func(*run.Context), 0, 2)
	if live {
		renderer := tui.NewLiveRenderer(frameRate)
		if err := renderer.Bind(rc); err != nil {
			return err
		}
		renderer.Start()
		defer renderer.Stop()
		observers = append(observers, renderer.OnTick)
	}
	if parentPID > 0 {
		observers = append(observers, func(rc *run.Context) {
			if !supervisor.ParentAlive(parentPID) {
				rc.Shutdown.Trip(fmt.Sprintf("parent process %d is gone", parentPID))
			}
		})
	}
	if len(observers) > 0 {
		cfg.Observer = func(rc *run.Context) {
			for _, obs := range observers {
				obs(rc)
			}
		}
	}

	if scada, err := stores.Fixed.BindString("scada_server_command"); err == nil && *scada != "" {
		child, err := supervisor.Start(*scada)
		if err != nil {
			return fmt.Errorf("scada server: %w", err)
		}
		logrus.Infof("scada server started, pid %d", child.PID())
		defer func() {
			if err := supervisor.Stop(child.PID(), 5*time.Second); err != nil {
				logrus.Errorf("scada server stop: %v", err)
			}
		}()
	}

	loop, err := sim.New(rc, sv, cfg)
	if err != nil {
		return err
	}
	loop.Run()

	if storeDir != "" {
		st := store.New(storeDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(rc, logPath)
		if err != nil {
			return err
		}
		logrus.Infof("archived run %s", runID)
	}

	if code := rc.Shutdown.ExitCode(); code != 0 {
		logrus.Errorf("run failed: %s", rc.Shutdown.Reason())
		os.Exit(code)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tCONTROL")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Duration,
			r.Dt,
			r.Integrator,
			r.TurbineControl,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, values, err := st.LoadSeries(args[0], plotColumn)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(values))
	graph := asciigraph.Plot(values,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s vs time", plotColumn)),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	return store.ExportJSON(os.Stdout, st, args[0])
}

// csvLogger opens the continuous per-tick log with the dynamic store's
// columns as its header.
func csvLogger(path string, stores *config.Stores) (*csvlog.Logger, error) {
	return csvlog.Create(path, stores.Dynamic.Columns())
}
