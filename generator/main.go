package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"git.solver4all.com/azaryc2s/vrpspd"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "generator"
	app.Usage = "create VRPSPDTW instances"
	app.Commands = []cli.Command{
		{
			Name:  "random",
			Usage: "generate random instances for every combination of node and vehicle counts",
			Flags: []cli.Flag{
				cli.IntSliceFlag{Name: "n", Usage: "Number of customers (repeatable)"},
				cli.IntSliceFlag{Name: "m", Usage: "Number of vehicles (repeatable)"},
				cli.StringFlag{Name: "name", Value: "zarychta", Usage: "Name for the instance"},
				cli.StringFlag{Name: "outputDir", Value: ".", Usage: "Output directory"},
				cli.IntFlag{Name: "count", Value: 1, Usage: "Number of instances per combination"},
				cli.IntFlag{Name: "capacity", Value: 100, Usage: "Vehicle capacity"},
				cli.IntFlag{Name: "demandMax", Value: 30, Usage: "Highest delivery or pickup amount of a customer"},
				cli.IntFlag{Name: "serviceMax", Value: 10, Usage: "Highest service time of a customer"},
				cli.Float64Flag{Name: "speed", Value: 1, Usage: "Vehicle speed"},
				cli.Float64Flag{Name: "maxTime", Usage: "Maximum route duration (0 = none)"},
				cli.IntFlag{Name: "x", Value: 100, Usage: "Max value on the x-axis"},
				cli.IntFlag{Name: "y", Value: 100, Usage: "Max value on the y-axis"},
				cli.StringFlag{Name: "w", Value: vrpspd.EDGE_EXACT_2D, Usage: "EDGE_WEIGHT_TYPE - how the distance between nodes is calculated."},
				cli.Int64Flag{Name: "seed", Usage: "Random seed (0 = time based)"},
			},
			Action: random,
		},
		{
			Name:      "csv",
			Usage:     "convert a customer and a vehicle table into a JSON instance",
			ArgsUsage: "<customers.csv> <vehicles.csv>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "name", Usage: "Name for the instance (defaults to the customer file name)"},
				cli.StringFlag{Name: "output", Usage: "Output file (defaults to <name>.json)"},
				cli.StringFlag{Name: "w", Value: vrpspd.EDGE_EXACT_2D, Usage: "EDGE_WEIGHT_TYPE of the converted instance"},
			},
			Action: fromCSV,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("generator failed")
	}
}

func random(c *cli.Context) error {
	nodes := c.IntSlice("n")
	vehicles := c.IntSlice("m")
	if len(nodes) == 0 || len(vehicles) == 0 {
		return fmt.Errorf("at least one -n and one -m is required")
	}
	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	capacity := c.Int("capacity")
	demandMax := c.Int("demandMax")
	if 2*demandMax > capacity {
		demandMax = capacity / 2
	}
	name := c.String("name")

	for l := 0; l < c.Int("count"); l++ {
		for _, n := range nodes {
			for _, m := range vehicles {
				inst := &vrpspd.Instance{
					Name:            fmt.Sprintf("%s_%d_%d_%d", name, n, m, l),
					Comment:         fmt.Sprintf("%s instance Nr. %d with %d customers and %d vehicles, seed %d", name, l, n, m, seed),
					Type:            vrpspd.TYPE_VRPSPDTW,
					NodeCount:       n + 1,
					EdgeWeightType:  c.String("w"),
					VehicleCount:    m,
					VehicleCapacity: capacity,
					VehicleSpeed:    c.Float64("speed"),
					MaxTravelTime:   c.Float64("maxTime"),
				}
				inst.NodeCoordinates = make([][]float64, n+1)
				inst.Deliveries = make([]int, n+1)
				inst.Pickups = make([]int, n+1)
				inst.ServiceTimes = make([]float64, n+1)
				inst.NodeCoordinates[0] = []float64{float64(c.Int("x") / 2), float64(c.Int("y") / 2)}
				for i := 1; i <= n; i++ {
					inst.NodeCoordinates[i] = []float64{float64(rng.Intn(c.Int("x"))), float64(rng.Intn(c.Int("y")))}
					inst.Deliveries[i] = rng.Intn(demandMax + 1)
					inst.Pickups[i] = rng.Intn(demandMax + 1)
					if sm := c.Int("serviceMax"); sm > 0 {
						inst.ServiceTimes[i] = float64(rng.Intn(sm + 1))
					}
				}
				path := filepath.Join(c.String("outputDir"), inst.Name+".json")
				if err := vrpspd.WriteInstance(path, inst); err != nil {
					return err
				}
				log.Info().Str("file", path).Msg("instance written")
			}
		}
	}
	return nil
}

func fromCSV(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <customers.csv> <vehicles.csv>, got %d arguments", c.NArg())
	}
	custF, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer custF.Close()
	vehF, err := os.Open(c.Args().Get(1))
	if err != nil {
		return err
	}
	defer vehF.Close()

	name := c.String("name")
	if name == "" {
		base := filepath.Base(c.Args().Get(0))
		name = base[:len(base)-len(filepath.Ext(base))]
	}
	inst, err := vrpspd.ReadCSVInstance(name, custF, vehF)
	if err != nil {
		return err
	}
	inst.EdgeWeightType = c.String("w")
	out := c.String("output")
	if out == "" {
		out = name + ".json"
	}
	if err = vrpspd.WriteInstance(out, inst); err != nil {
		return err
	}
	log.Info().Str("file", out).Int("customers", inst.NodeCount-1).Msg("instance written")
	return nil
}
