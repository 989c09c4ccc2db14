package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/timemarch/internal/analysis"
	"github.com/san-kum/timemarch/internal/automation"
	"github.com/san-kum/timemarch/internal/config"
	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/experiment"
	"github.com/san-kum/timemarch/internal/export"
	"github.com/san-kum/timemarch/internal/integrators"
	"github.com/san-kum/timemarch/internal/metrics"
	"github.com/san-kum/timemarch/internal/physics"
	"github.com/san-kum/timemarch/internal/storage"
	"github.com/san-kum/timemarch/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   = slog.New(slog.DiscardHandler)

	scheme      string
	nodes       int
	t0, t1      float64
	steps       int
	timesFlag   string
	profile     string
	amplitude   float64
	boundary    string
	leftValue   float64
	rightValue  float64
	paramFlags  []string
	tolerance   float64
	maxIter     int
	configFile  string
	preset      string
	metricsFile string
	noSave      bool

	plotCol    int
	outPath    string
	analyzeRow int
	levelsFlag string

	sweepParam  string
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int

	svgRows string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "timemarch",
		Short:         "explicit and implicit time-marching lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".timemarch", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "integrate a system and save the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addProblemFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one cell over time and the final profile",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotCol, "col", 0, "interior cell to plot over time (1..N, 0 for the middle)")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "replay a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], outPath)
		},
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [system] [scheme...]",
		Short: "run the same problem under several schemes",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareSchemes,
	}
	addProblemFlags(compareCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets for a system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for system: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				cfg := config.GetPreset(args[0], p)
				fmt.Printf("  %-12s %s, %d cells, %s boundary\n", p, cfg.Scheme, cfg.N(), cfg.Boundary.Kind)
			}
			return nil
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spatial spectrum of one row",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&analyzeRow, "row", -1, "row to analyze (default last)")

	convergeCmd := &cobra.Command{
		Use:   "converge [system]",
		Short: "step-refinement study of the observed order of accuracy",
		Args:  cobra.MaximumNArgs(1),
		RunE:  convergeStudy,
	}
	addProblemFlags(convergeCmd)
	convergeCmd.Flags().StringVar(&levelsFlag, "levels", "10,20,40,80", "comma-separated step counts")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "map stability over a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addProblemFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "sweep", "steps", "parameter to vary (steps, nodes or a system parameter)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 10, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 200, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 10, "number of values")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render selected profiles to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&svgRows, "rows", "", "comma-separated row indices (default first, middle, last)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, viewCmd, exportJSONCmd, exportSVGCmd, compareCmd, presetsCmd,
		analyzeCmd, convergeCmd, scenarioCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scheme, "scheme", config.DefaultScheme, "time-marching scheme ("+schemeNames()+")")
	cmd.Flags().IntVar(&nodes, "nodes", config.DefaultNodes, "number of interior cells")
	cmd.Flags().Float64Var(&t0, "t0", config.DefaultStart, "start time")
	cmd.Flags().Float64Var(&t1, "t1", config.DefaultEnd, "end time")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of uniform steps")
	cmd.Flags().StringVar(&timesFlag, "times", "", "explicit comma-separated time grid")
	cmd.Flags().StringVar(&profile, "ic", config.DefaultProfile, "initial profile ("+strings.Join(physics.ListProfiles(), ", ")+")")
	cmd.Flags().Float64Var(&amplitude, "amp", config.DefaultAmplitude, "initial amplitude")
	cmd.Flags().StringVar(&boundary, "bc", config.DefaultBoundary, "boundary kind")
	cmd.Flags().Float64Var(&leftValue, "left", 0, "left boundary value")
	cmd.Flags().Float64Var(&rightValue, "right", 0, "right boundary value")
	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "system parameter as name=value (repeatable)")
	cmd.Flags().Float64Var(&tolerance, "tol", 0, "newton residual tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "newton iteration limit")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func schemeNames() string {
	names := make([]string, 0, 3)
	for _, s := range integrators.Schemes() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}

// buildConfig layers preset, config file and explicitly set flags, in that
// order.
func buildConfig(cmd *cobra.Command, system string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(system, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system))
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if system != "" {
		cfg.System = system
	}

	flags := cmd.Flags()
	if flags.Changed("scheme") {
		cfg.Scheme = scheme
	}
	if flags.Changed("nodes") {
		cfg.Nodes = nodes
		cfg.Initial.Values = nil
	}
	if flags.Changed("t0") {
		cfg.Grid.Start = t0
		cfg.Grid.Times = nil
	}
	if flags.Changed("t1") {
		cfg.Grid.End = t1
		cfg.Grid.Times = nil
	}
	if flags.Changed("steps") {
		cfg.Grid.Steps = steps
		cfg.Grid.Times = nil
	}
	if flags.Changed("times") {
		times, err := parseFloats(timesFlag)
		if err != nil {
			return nil, fmt.Errorf("--times: %w", err)
		}
		cfg.Grid.Times = times
	}
	if flags.Changed("ic") {
		cfg.Initial.Profile = profile
		cfg.Initial.Values = nil
	}
	if flags.Changed("amp") {
		cfg.Initial.Amplitude = amplitude
	}
	if flags.Changed("bc") {
		cfg.Boundary.Kind = boundary
	}
	if flags.Changed("left") {
		cfg.Boundary.Left = leftValue
	}
	if flags.Changed("right") {
		cfg.Boundary.Right = rightValue
	}
	params, err := parseParams(paramFlags)
	if err != nil {
		return nil, err
	}
	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}
	for k, v := range params {
		cfg.Params[k] = v
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	system := ""
	if len(args) > 0 {
		system = args[0]
	}
	cfg, err := buildConfig(cmd, system)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, experiment.NewRegistry(), logger)
	var recorder *metrics.Recorder
	if metricsFile != "" {
		recorder = metrics.NewRecorder()
		exp.SetRecorder(recorder)
	}

	fmt.Printf("running %s with %s...\n", cfg.System, cfg.Scheme)
	res, runErr := exp.Run(ctx)

	if recorder != nil {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			logger.Warn("writing metrics failed", "path", metricsFile, "err", err)
		}
	}
	if res == nil {
		return runErr
	}

	printSummary(res)
	if runErr != nil {
		var simErr *dynamo.SimulationError
		if errors.As(runErr, &simErr) {
			fmt.Printf("stopped at step %d (t=%g)\n", simErr.Step, simErr.Time)
		}
		return runErr
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		System:           cfg.System,
		Scheme:           res.Scheme.String(),
		Boundary:         cfg.Boundary.Kind,
		Params:           cfg.SystemParams(),
		Steps:            res.Steps,
		BoundaryCalls:    res.BoundaryCalls,
		SolverIterations: res.SolverIterations,
		Metrics:          res.Metrics,
	}, res.Trajectory)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printSummary(res *experiment.Result) {
	fmt.Printf("completed in %v\n", res.Elapsed)
	fmt.Printf("scheme: %s (order %d)\n", res.Scheme, res.Scheme.Order())
	fmt.Printf("steps: %d\n", res.Steps)
	fmt.Printf("boundary applications: %d\n", res.BoundaryCalls)
	fmt.Printf("rhs evaluations: %d\n", res.Evaluations)
	fmt.Printf("solver iterations: %d\n", res.SolverIterations)
	if res.Trajectory != nil && res.Steps > 0 {
		fmt.Printf("final interior norm: %.6g\n", res.Trajectory.Row(int(res.Steps)).Interior().Norm())
	}
	if len(res.Metrics) == 0 {
		return
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, res.Metrics[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tSCHEME\tTIME\tCELLS\tSTEPS\tSPAN\tBC")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t[%g, %g]\t%s\n",
			run.ID,
			run.System,
			run.Scheme,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nodes,
			run.Steps,
			run.Start, run.End,
			run.Boundary,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	col := plotCol
	if col == 0 {
		col = (traj.N() + 1) / 2
	}
	if col < 1 || col > traj.N() {
		return fmt.Errorf("--col must be in 1..%d, got %d", traj.N(), col)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("system: %s (%s, %s boundary)\n", meta.System, meta.Scheme, meta.Boundary)
	fmt.Printf("rows: %d  cells: %d\n\n", traj.Rows(), traj.N())

	series := traj.Column(col)
	if len(series) == 1 {
		series = append(series, series[0])
	}
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("x%d vs time", col)),
	))
	fmt.Println()

	last := traj.Rows() - 1
	fmt.Println(viz.Profile(traj.Interior(last), 80, 10, fmt.Sprintf("profile at t=%g", traj.Times()[last])))
	return nil
}

func viewRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return viz.Run(traj, fmt.Sprintf("%s / %s", meta.System, meta.Scheme), meta.Metrics)
}

func compareSchemes(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	names := args[1:]
	if len(names) == 0 {
		for _, s := range integrators.Schemes() {
			names = append(names, s.String())
		}
	}

	registry := experiment.NewRegistry()
	results := make([]*experiment.Result, len(names))
	jobs := make([]dynamo.Job, len(names))
	for i, name := range names {
		cfg := base.Clone()
		cfg.Scheme = name
		jobs[i] = func(ctx context.Context) (*dynamo.Trajectory, error) {
			res, err := experiment.New(cfg, registry, logger.With("scheme", name)).Run(ctx)
			results[i] = res
			if res == nil {
				return nil, err
			}
			return res.Trajectory, err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	outcomes := dynamo.RunAll(ctx, jobs)

	fmt.Printf("comparing schemes for %s (%d cells, %s boundary)\n\n", base.System, base.N(), base.Boundary.Kind)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tSTEPS\tRHS EVALS\tNEWTON\tFINAL NORM\tGROWTH\tTIME_MS\tERROR")
	for i, name := range names {
		out, res := outcomes[i], results[i]
		if res == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t%v\n", name, out.Err)
			continue
		}
		final := "-"
		if res.Steps > 0 {
			final = fmt.Sprintf("%.6g", res.Trajectory.Row(int(res.Steps)).Interior().Norm())
		}
		errText := ""
		if out.Err != nil {
			errText = out.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%.4g\t%.2f\t%s\n",
			res.Scheme, res.Steps, res.Evaluations, res.SolverIterations,
			final, res.Metrics["growth"], float64(out.Elapsed.Microseconds())/1000, errText)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	traj, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	row := analyzeRow
	if row < 0 {
		row = traj.Rows() - 1
	}
	if row >= traj.Rows() {
		return fmt.Errorf("--row must be below %d, got %d", traj.Rows(), row)
	}

	profile := traj.Interior(row)
	mags := analysis.Spectrum(profile)
	fmt.Printf("row %d (t=%g), %d cells\n", row, traj.Times()[row], len(profile))
	fmt.Printf("high-frequency fraction: %.4f\n\n", analysis.HighFrequencyFraction(profile))
	if len(mags) > 1 {
		fmt.Println(asciigraph.Plot(mags,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("|F(k)| vs wavenumber"),
		))
	}
	return nil
}

func convergeStudy(cmd *cobra.Command, args []string) error {
	system := ""
	if len(args) > 0 {
		system = args[0]
	}
	cfg, err := buildConfig(cmd, system)
	if err != nil {
		return err
	}
	levels, err := parseFloats(levelsFlag)
	if err != nil {
		return fmt.Errorf("--levels: %w", err)
	}
	counts := make([]int, len(levels))
	for i, v := range levels {
		counts[i] = int(v)
	}

	registry := experiment.NewRegistry()
	reference, exact := analysis.ExactFinal(cfg, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := analysis.Refine(ctx, cfg, registry, counts, reference)
	if err != nil {
		return err
	}

	against := "finest run"
	if exact {
		against = "exact solution"
	}
	fmt.Printf("%s with %s, error against %s\n\n", cfg.System, cfg.Scheme, against)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPS\tDT\tMAX ERROR\tORDER")
	for _, l := range result {
		order := "-"
		if !math.IsNaN(l.Order) {
			order = fmt.Sprintf("%.3f", l.Order)
		}
		fmt.Fprintf(w, "%d\t%.4g\t%.4e\t%s\n", l.Steps, l.Dt, l.Error, order)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d runs\n", sc.Name, len(sc.Runs))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nNAME\tSCHEME\tSTEPS\tGROWTH\tPEAK\tRUN ID")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4g\t%.4g\t%s\n",
			r.Name, r.Result.Scheme, r.Result.Steps, r.Result.Metrics["growth"], r.Result.Metrics["peak"], id)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	system := ""
	if len(args) > 0 {
		system = args[0]
	}
	cfg, err := buildConfig(cmd, system)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunSweep(ctx, cfg, experiment.NewRegistry(), automation.ParameterSweep{
		Param:  sweepParam,
		Min:    sweepFrom,
		Max:    sweepTo,
		Points: sweepPoints,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s with %s, sweeping %s\n\n", cfg.System, cfg.Scheme, sweepParam)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tGROWTH\tPEAK\tSTABLE\tERROR")
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%v\t%s\n", r.Value, r.Growth, r.Peak, r.Stable, errText)
	}
	return w.Flush()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	traj, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	last := traj.Rows() - 1
	rows := []int{0, last / 2, last}
	if svgRows != "" {
		values, err := parseFloats(svgRows)
		if err != nil {
			return fmt.Errorf("--rows: %w", err)
		}
		rows = rows[:0]
		for _, v := range values {
			rows = append(rows, int(v))
		}
	}

	svg := export.ProfilesToSVG(traj, rows, 800, 400)
	if svg == "" {
		return fmt.Errorf("nothing to draw for rows %v", rows)
	}
	if outPath == "" {
		_, err = fmt.Print(svg)
		return err
	}
	return os.WriteFile(outPath, []byte(svg), 0644)
}
