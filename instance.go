package vrpspd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Problem is the validated, read-only view of an instance shared by all
// components of a run.
type Problem struct {
	Name      string
	Customers []Customer // index = id, 0 is the depot
	Fleet     Fleet

	dist   [][]float64
	travel [][]float64
}

// NewProblem validates inst. Speed and duration cap fall back to cfg when the
// instance does not set them.
func NewProblem(inst *Instance, cfg Config) (*Problem, error) {
	n := len(inst.NodeCoordinates)
	if n == 0 {
		return nil, fmt.Errorf("%w: %s has no nodes", ErrInvalidInstance, inst.Name)
	}
	if inst.NodeCount != 0 && inst.NodeCount != n {
		return nil, fmt.Errorf("%w: %s: node_count %d but %d coordinates", ErrInvalidInstance, inst.Name, inst.NodeCount, n)
	}
	if len(inst.Deliveries) != n || len(inst.Pickups) != n {
		return nil, fmt.Errorf("%w: %s: %d nodes but %d deliveries and %d pickups", ErrInvalidInstance, inst.Name, n, len(inst.Deliveries), len(inst.Pickups))
	}
	if inst.ServiceTimes != nil && len(inst.ServiceTimes) != n {
		return nil, fmt.Errorf("%w: %s: %d nodes but %d service times", ErrInvalidInstance, inst.Name, n, len(inst.ServiceTimes))
	}
	if inst.VehicleCount < 1 || inst.VehicleCapacity < 1 {
		return nil, fmt.Errorf("%w: %s: fleet of %d vehicles with capacity %d", ErrInvalidInstance, inst.Name, inst.VehicleCount, inst.VehicleCapacity)
	}
	speed := inst.VehicleSpeed
	if speed == 0 {
		speed = cfg.VehicleSpeed
	}
	maxTime := inst.MaxTravelTime
	if maxTime == 0 {
		maxTime = cfg.MaxTravelTime
	}
	if speed <= 0 || maxTime < 0 {
		return nil, fmt.Errorf("%w: %s: speed %g, max travel time %g", ErrInvalidInstance, inst.Name, speed, maxTime)
	}

	p := &Problem{
		Name:      inst.Name,
		Customers: make([]Customer, n),
		Fleet:     Fleet{Count: inst.VehicleCount, Capacity: inst.VehicleCapacity, Speed: speed, MaxDuration: maxTime},
	}
	for i := 0; i < n; i++ {
		if len(inst.NodeCoordinates[i]) < 2 {
			return nil, fmt.Errorf("%w: %s: node %d has %d coordinates", ErrInvalidInstance, inst.Name, i, len(inst.NodeCoordinates[i]))
		}
		c := Customer{ID: i, X: inst.NodeCoordinates[i][0], Y: inst.NodeCoordinates[i][1], Delivery: inst.Deliveries[i], Pickup: inst.Pickups[i]}
		if inst.ServiceTimes != nil {
			c.ServiceTime = inst.ServiceTimes[i]
		}
		if c.Delivery < 0 || c.Pickup < 0 || c.ServiceTime < 0 {
			return nil, fmt.Errorf("%w: %s: node %d has negative demand or service time", ErrInvalidInstance, inst.Name, i)
		}
		p.Customers[i] = c
	}
	p.dist = CalcEdgeDist(inst.NodeCoordinates, inst.EdgeWeightType)
	p.travel = make([][]float64, n)
	for i := range p.dist {
		p.travel[i] = make([]float64, n)
		for j := range p.dist[i] {
			p.travel[i][j] = p.dist[i][j] / speed
		}
	}
	return p, nil
}

// N is the number of customers without the depot.
func (p *Problem) N() int {
	return len(p.Customers) - 1
}

func (p *Problem) Dist(i, j int) float64 {
	return p.dist[i][j]
}

func (p *Problem) TravelTime(i, j int) float64 {
	return p.travel[i][j]
}

func (p *Problem) hasDurationCap() bool {
	return p.Fleet.MaxDuration > 0
}

// LoadInstance reads a JSON instance file.
func LoadInstance(path string) (*Instance, error) {
	instStr, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	inst := &Instance{}
	if err = json.Unmarshal(instStr, inst); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return inst, nil
}

// WriteInstance writes inst, including its solution if any, as indented JSON.
func WriteInstance(path string, inst *Instance) error {
	jsonInst, err := json.MarshalIndent(inst, "", "\t")
	if err != nil {
		return err
	}
	jsonInst = []byte(SanitizeJsonArrayLineBreaks(string(jsonInst)))
	return os.WriteFile(path, jsonInst, 0644)
}

// ReadCSVInstance reads the flat file format with one customer per line
// (customer_id,x_coord,y_coord,delivery_qty,pick_up_qty,service_time, the
// depot first) and a single vehicle line (vehicle_count,vehicle_capacity).
func ReadCSVInstance(name string, customers, vehicles io.Reader) (*Instance, error) {
	custRows, err := readCSV(customers)
	if err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}
	vehRows, err := readCSV(vehicles)
	if err != nil {
		return nil, fmt.Errorf("vehicles: %w", err)
	}
	if len(custRows) == 0 || len(vehRows) == 0 {
		return nil, fmt.Errorf("%w: empty customer or vehicle file", ErrInvalidInstance)
	}

	inst := &Instance{Name: name, Type: TYPE_VRPSPDTW, EdgeWeightType: EDGE_EXACT_2D}
	for line, rec := range custRows {
		if len(rec) < 6 {
			return nil, fmt.Errorf("%w: customer line %d has %d fields", ErrInvalidInstance, line+2, len(rec))
		}
		f, err := parseFloats(rec[:6])
		if err != nil {
			return nil, fmt.Errorf("%w: customer line %d: %v", ErrInvalidInstance, line+2, err)
		}
		if int(f[0]) != line {
			return nil, fmt.Errorf("%w: customer line %d has id %d, ids must be 0..n in order", ErrInvalidInstance, line+2, int(f[0]))
		}
		inst.NodeCoordinates = append(inst.NodeCoordinates, []float64{f[1], f[2]})
		inst.Deliveries = append(inst.Deliveries, int(f[3]))
		inst.Pickups = append(inst.Pickups, int(f[4]))
		inst.ServiceTimes = append(inst.ServiceTimes, f[5])
	}
	v, err := parseFloats(vehRows[0])
	if err != nil || len(v) < 2 {
		return nil, fmt.Errorf("%w: vehicle line: %v", ErrInvalidInstance, err)
	}
	inst.NodeCount = len(inst.NodeCoordinates)
	inst.VehicleCount = int(v[0])
	inst.VehicleCapacity = int(v[1])
	inst.Comment = fmt.Sprintf("%s converted from flat files with %d customers", name, inst.NodeCount-1)
	return inst, nil
}

// readCSV returns all records after the header line.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func parseFloats(fields []string) ([]float64, error) {
	res := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}
