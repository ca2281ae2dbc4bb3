/* Copyright 2021, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */

package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"git.solver4all.com/azaryc2s/vrpspd"
	"git.solver4all.com/azaryc2s/vrpspd/lp"
	"git.solver4all.com/azaryc2s/vrpspd/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "solver"
	app.Usage = "solve a VRPSPDTW instance by column generation and write the solution into the instance file"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "input", Value: "input.json", Usage: "Path to the input instance"},
		cli.StringFlag{Name: "output", Usage: "Path to the output file. By default the input file will be overwritten adding the solution"},
		cli.StringFlag{Name: "config", Value: ".", Usage: "Directory containing vrpspd.env and .env"},
		cli.StringFlag{Name: "backend", Usage: fmt.Sprintf("LP backend, one of %v", lp.Backends())},
		cli.IntFlag{Name: "log", Usage: "Level of the logging output. Higher value is more verbose. Range 1-4"},
		cli.Float64Flag{Name: "epsilon", Usage: "Reduced cost a route must undercut to enter the master problem"},
		cli.IntFlag{Name: "max-iterations", Usage: "Stop pricing after this many iterations (0 = until convergence)"},
		cli.IntFlag{Name: "max-columns", Usage: "Routes added per iteration (0 = all found)"},
		cli.DurationFlag{Name: "time-limit", Usage: "Abort the run after this duration"},
		cli.BoolFlag{Name: "no-snapshots", Usage: "Do not store the column pool of every iteration in the solution"},
		cli.StringFlag{Name: "metrics-addr", Usage: "Serve prometheus metrics on this address while solving"},
		cli.StringFlag{Name: "metrics-file", Usage: "Write prometheus metrics to this file when done"},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (vrpspd.Config, error) {
	cfg, err := vrpspd.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("log") {
		cfg.LogLevel = c.Int("log")
	}
	if c.IsSet("epsilon") {
		cfg.Epsilon = c.Float64("epsilon")
	}
	if c.IsSet("max-iterations") {
		cfg.MaxIterations = c.Int("max-iterations")
	}
	if c.IsSet("max-columns") {
		cfg.MaxColumns = c.Int("max-columns")
	}
	if c.IsSet("time-limit") {
		cfg.TimeLimit = c.Duration("time-limit")
	}
	if c.Bool("no-snapshots") {
		cfg.Snapshots = false
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	inputF := c.String("input")
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := vrpspd.NewLogger(os.Stderr, cfg.LogLevel)

	pInst, err := vrpspd.LoadInstance(inputF)
	if err != nil {
		logger.Error().Err(err).Str("input", inputF).Msg("cannot load instance")
		return err
	}
	problem, err := vrpspd.NewProblem(pInst, cfg)
	if err != nil {
		logger.Error().Err(err).Str("input", inputF).Msg("invalid instance")
		return err
	}
	solver, err := lp.New(cfg.Backend, cfg.SolverOptions())
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	collector := metrics.NewCollector(reg)
	if addr := c.String("metrics-addr"); addr != "" {
		serveMetrics(addr, reg, logger)
	}

	ctx := context.Background()
	if cfg.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.TimeLimit)
		defer cancel()
	}

	sol := &vrpspd.Solution{
		RunID:   uuid.NewString(),
		Backend: cfg.Backend,
		System:  vrpspd.CollectSysInfo(),
		Comment: fmt.Sprintf("Solver-Settings: SolverDev: Zarychta, Backend=%s, Epsilon=%g, MaxIterations=%d, MaxColumns=%d", cfg.Backend, cfg.Epsilon, cfg.MaxIterations, cfg.MaxColumns),
	}
	opts := cfg.RunOptions(logger)
	opts.Observer = collector

	logger.Info().Str("instance", problem.Name).Int("customers", problem.N()).Int("vehicles", problem.Fleet.Count).Str("run_id", sol.RunID).Msg("solving")
	startTime := time.Now()
	res, err := vrpspd.Solve(ctx, problem, solver, opts)
	sol.Time = time.Since(startTime).String()
	defer writeMetrics(c.String("metrics-file"), reg, logger)
	if err != nil {
		logger.Error().Err(err).Str("input", inputF).Msg("no solution")
		return err
	}
	logger.Info().Msg("---OPTIMIZATION DONE---")

	captureSolution(sol, res)
	solValid, validComment := vrpspd.CheckSolutionValidity(problem, sol.Routes, sol.Obj)
	if !solValid {
		logger.Error().Msg(validComment)
		sol.Comment += " " + validComment
	} else {
		logger.Info().Msg("The computed solution is valid!")
	}
	logger.Info().Float64("obj", sol.Obj).Float64("lp_bound", sol.LPBound).Msgf("Found a VRPSPDTW-Solution with %d routes", len(sol.Routes))

	pInst.Solution = sol
	fileName := c.String("output")
	if fileName == "" {
		fileName = inputF //overwrite the input file
	}
	if err = vrpspd.WriteInstance(fileName, pInst); err != nil {
		logger.Error().Err(err).Str("output", fileName).Msg("cannot write solution")
		return err
	}
	return nil
}

func captureSolution(sol *vrpspd.Solution, res *vrpspd.Result) {
	sol.Obj = res.Cost
	sol.LPBound = res.LPObjective
	if res.LPObjective > 0 {
		sol.Gap = math.Round((res.Cost-res.LPObjective)/res.LPObjective*10000) / 10000
	}
	sol.Optimal = res.Proven && res.Diagnostics.Converged && sol.Gap == 0
	sol.Iterations = len(res.Iterations)
	sol.Columns = res.Pool
	sol.Snapshots = res.Snapshots
	for _, r := range res.Routes {
		sol.Routes = append(sol.Routes, r.Path)
		sol.RouteCosts = append(sol.RouteCosts, r.Cost)
	}
	for _, w := range res.Diagnostics.Warnings {
		sol.Comment += ". " + w
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics endpoint stopped")
		}
	}()
}

func writeMetrics(path string, reg *prometheus.Registry, logger zerolog.Logger) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		logger.Error().Err(err).Str("file", path).Msg("cannot write metrics")
	}
}
