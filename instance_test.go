package vrpspd

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sixCustomers has binding capacity and duration limits.
func sixCustomers() *Instance {
	return &Instance{
		Name:            "six",
		Type:            TYPE_VRPSPDTW,
		EdgeWeightType:  EDGE_EXACT_2D,
		NodeCoordinates: [][]float64{{50, 50}, {20, 30}, {80, 20}, {70, 80}, {30, 70}, {55, 55}, {10, 90}},
		Deliveries:      []int{0, 4, 7, 3, 6, 5, 2},
		Pickups:         []int{0, 6, 2, 5, 3, 4, 8},
		ServiceTimes:    []float64{0, 5, 5, 5, 5, 5, 5},
		VehicleCount:    4,
		VehicleCapacity: 15,
		VehicleSpeed:    1,
		MaxTravelTime:   200,
	}
}

func line(n int) *Instance {
	inst := &Instance{
		Name:            "line",
		EdgeWeightType:  EDGE_EXACT_2D,
		NodeCoordinates: [][]float64{{0, 0}},
		Deliveries:      []int{0},
		Pickups:         []int{0},
		VehicleCount:    n,
		VehicleCapacity: 100,
	}
	for i := 1; i <= n; i++ {
		inst.NodeCoordinates = append(inst.NodeCoordinates, []float64{float64(10 * i), 0})
		inst.Deliveries = append(inst.Deliveries, i)
		inst.Pickups = append(inst.Pickups, 1)
	}
	return inst
}

func newProblem(t *testing.T, inst *Instance) *Problem {
	t.Helper()
	p, err := NewProblem(inst, DefaultConfig())
	require.NoError(t, err)
	return p
}

func TestNewProblem(t *testing.T) {
	p := newProblem(t, sixCustomers())
	assert.Equal(t, "six", p.Name)
	assert.Equal(t, 6, p.N())
	assert.Equal(t, Fleet{Count: 4, Capacity: 15, Speed: 1, MaxDuration: 200}, p.Fleet)
	assert.Equal(t, Customer{ID: 2, X: 80, Y: 20, Delivery: 7, Pickup: 2, ServiceTime: 5}, p.Customers[2])
	assert.InDelta(t, math.Sqrt(800), p.Dist(0, 4), 1e-12)
	assert.InDelta(t, p.Dist(1, 3), p.Dist(3, 1), 0)
}

func TestNewProblemFallsBackToConfig(t *testing.T) {
	inst := line(2)
	cfg := DefaultConfig()
	cfg.VehicleSpeed = 2
	cfg.MaxTravelTime = 500
	p, err := NewProblem(inst, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Fleet.Speed)
	assert.Equal(t, 500.0, p.Fleet.MaxDuration)
	assert.InDelta(t, 5, p.TravelTime(0, 1), 1e-12)
	assert.InDelta(t, 10, p.Dist(0, 1), 1e-12)

	inst.VehicleSpeed = 4
	p, err = NewProblem(inst, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, p.TravelTime(0, 1), 1e-12)
}

func TestNewProblemRejectsBrokenInstances(t *testing.T) {
	tests := map[string]func(*Instance){
		"no nodes":          func(i *Instance) { i.NodeCoordinates = nil },
		"node count":        func(i *Instance) { i.NodeCount = 3 },
		"deliveries":        func(i *Instance) { i.Deliveries = i.Deliveries[:2] },
		"service times":     func(i *Instance) { i.ServiceTimes = []float64{1} },
		"no vehicles":       func(i *Instance) { i.VehicleCount = 0 },
		"no capacity":       func(i *Instance) { i.VehicleCapacity = 0 },
		"negative speed":    func(i *Instance) { i.VehicleSpeed = -1 },
		"short coordinates": func(i *Instance) { i.NodeCoordinates[1] = []float64{1} },
		"negative pickup":   func(i *Instance) { i.Pickups[2] = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			inst := line(3)
			mutate(inst)
			_, err := NewProblem(inst, DefaultConfig())
			assert.ErrorIs(t, err, ErrInvalidInstance)
		})
	}
}

func TestReadCSVInstance(t *testing.T) {
	customers := `customer_id,x_coord,y_coord,delivery_qty,pick_up_qty,service_time
0,35,35,0,0,0
1, 41, 49, 10, 3, 10
2,35,17,7,8,10
`
	vehicles := "vehicle_count,vehicle_capacity\n3,200\n"
	inst, err := ReadCSVInstance("flat", strings.NewReader(customers), strings.NewReader(vehicles))
	require.NoError(t, err)
	assert.Equal(t, 3, inst.NodeCount)
	assert.Equal(t, [][]float64{{35, 35}, {41, 49}, {35, 17}}, inst.NodeCoordinates)
	assert.Equal(t, []int{0, 10, 7}, inst.Deliveries)
	assert.Equal(t, []int{0, 3, 8}, inst.Pickups)
	assert.Equal(t, []float64{0, 10, 10}, inst.ServiceTimes)
	assert.Equal(t, 3, inst.VehicleCount)
	assert.Equal(t, 200, inst.VehicleCapacity)

	p := newProblem(t, inst)
	assert.Equal(t, 2, p.N())
}

func TestReadCSVInstanceRejectsBadFiles(t *testing.T) {
	header := "customer_id,x_coord,y_coord,delivery_qty,pick_up_qty,service_time\n"
	vehicles := "vehicle_count,vehicle_capacity\n3,200\n"

	_, err := ReadCSVInstance("gap", strings.NewReader(header+"0,0,0,0,0,0\n2,1,1,1,1,1\n"), strings.NewReader(vehicles))
	assert.ErrorIs(t, err, ErrInvalidInstance)

	_, err = ReadCSVInstance("text", strings.NewReader(header+"0,0,zero,0,0,0\n"), strings.NewReader(vehicles))
	assert.ErrorIs(t, err, ErrInvalidInstance)

	_, err = ReadCSVInstance("novehicle", strings.NewReader(header+"0,0,0,0,0,0\n"), strings.NewReader("vehicle_count,vehicle_capacity\n"))
	assert.ErrorIs(t, err, ErrInvalidInstance)
}

func TestWriteInstanceKeepsArraysOnOneLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "six.json")
	inst := sixCustomers()
	inst.Solution = &Solution{Obj: 12.5, Routes: [][]int{{0, 1, 2, 0}, {0, 3, 0}}}
	require.NoError(t, WriteInstance(path, inst))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[0,4,7,3,6,5,2]")
	assert.Contains(t, string(raw), "[0,1,2,0]")

	loaded, err := LoadInstance(path)
	require.NoError(t, err)
	assert.Equal(t, inst.Deliveries, loaded.Deliveries)
	assert.Equal(t, inst.Solution.Routes, loaded.Solution.Routes)
}

func TestLoadInstanceErrors(t *testing.T) {
	_, err := LoadInstance(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadInstance(path)
	assert.Error(t, err)
}
