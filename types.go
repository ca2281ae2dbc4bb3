package vrpspd

const (
	TYPE_VRPSPDTW = "VRPSPDTW"

	EDGE_EXACT_2D = "EXACT_2D"
	EDGE_EUC_2D   = "EUC_2D"
	EDGE_CEIL_2D  = "CEIL_2D"
)

// Instance is the file format of a problem. Index 0 of every per-node slice
// is the depot.
type Instance struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Type    string `json:"type"`

	NodeCount       int         `json:"node_count"`
	EdgeWeightType  string      `json:"edge_weight_type"`
	NodeCoordinates [][]float64 `json:"node_coordinates"`
	Deliveries      []int       `json:"deliveries"`
	Pickups         []int       `json:"pickups"`
	ServiceTimes    []float64   `json:"service_times"`

	VehicleCount    int     `json:"vehicle_count"`
	VehicleCapacity int     `json:"vehicle_capacity"`
	VehicleSpeed    float64 `json:"vehicle_speed,omitempty"`
	MaxTravelTime   float64 `json:"max_travel_time,omitempty"`

	Solution *Solution `json:"solution,omitempty"`
}

type Solution struct {
	RunID      string    `json:"run_id"`
	Obj        float64   `json:"obj"`
	LPBound    float64   `json:"lp_bound"`
	Gap        float64   `json:"gap"`
	Optimal    bool      `json:"optimal"`
	Routes     [][]int   `json:"routes"`
	RouteCosts []float64 `json:"route_costs"`
	Iterations int       `json:"iterations"`
	Columns    int       `json:"columns"`
	Backend    string    `json:"backend"`

	// Snapshots holds the column pool after each iteration that changed it.
	Snapshots [][][]int `json:"snapshots,omitempty"`

	Time    string  `json:"time"`
	System  SysInfo `json:"system"`
	Comment string  `json:"comment"`
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}

type Customer struct {
	ID          int
	X, Y        float64
	Delivery    int
	Pickup      int
	ServiceTime float64
}

func (c Customer) Demand() int {
	return c.Delivery + c.Pickup
}

type Fleet struct {
	Count    int
	Capacity int
	Speed    float64
	// MaxDuration caps travel plus service time of a route, 0 means no cap.
	MaxDuration float64
}
