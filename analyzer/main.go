package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"git.solver4all.com/azaryc2s/vrpspd"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

type row struct {
	inst    *vrpspd.Instance
	valid   bool
	comment string
}

func main() {
	app := cli.NewApp()
	app.Name = "analyzer"
	app.Usage = "summarize the solutions stored in a directory of instances as CSV"
	app.ArgsUsage = "<dir>"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "Files loaded in parallel"},
	}
	app.Action = analyze
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("analyzer failed")
	}
}

func analyze(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("No arguments passed!")
	}
	dirName := c.Args().First()
	files, err := filepath.Glob(filepath.Join(dirName, "*.json"))
	if err != nil {
		return err
	}

	rows := make([]row, len(files))
	var g errgroup.Group
	g.SetLimit(c.Int("workers"))
	for i, fileName := range files {
		i, fileName := i, fileName
		g.Go(func() error {
			inst, err := vrpspd.LoadInstance(fileName)
			if err != nil {
				return err
			}
			rows[i].inst = inst
			if inst.Solution == nil {
				return nil
			}
			problem, err := vrpspd.NewProblem(inst, vrpspd.DefaultConfig())
			if err != nil {
				return fmt.Errorf("%s: %w", fileName, err)
			}
			rows[i].valid, rows[i].comment = vrpspd.CheckSolutionValidity(problem, inst.Solution.Routes, inst.Solution.Obj)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Name,Optimal,Time,Obj,LPBound,Gap,Customers,Vehicles,Routes,Iterations,Columns,Valid,Comment\n")
	for _, r := range rows {
		inst := r.inst
		if inst.Solution == nil {
			log.Warn().Str("instance", inst.Name).Msg("No solution")
			continue
		}
		sol := inst.Solution
		comment := sol.Comment
		if !r.valid {
			comment = fmt.Sprintf("%s %s", comment, r.comment)
		}
		fmt.Printf("%s,%t,%s,%.4f,%.4f,%.4f,%d,%d,%d,%d,%d,%t,%s\n", inst.Name, sol.Optimal, sol.Time, sol.Obj, sol.LPBound, sol.Gap,
			len(inst.NodeCoordinates)-1, inst.VehicleCount, len(sol.Routes), sol.Iterations, sol.Columns, r.valid, strings.ReplaceAll(comment, ",", ";"))
	}
	return nil
}
