package trimet

// Point is a WGS84 coordinate.
type Point struct {
	Lon float64
	Lat float64
}

// ArrivalsResponse is the v2 arrivals service payload.
type ArrivalsResponse struct {
	ResultSet ArrivalsResultSet `json:"resultSet"`
}

type ArrivalsResultSet struct {
	Error     *ResultError      `json:"error,omitempty"`
	QueryTime int64             `json:"queryTime"`
	Arrivals  []RawArrival      `json:"arrival"`
	Locations []ArrivalLocation `json:"location"`
}

// ResultError is a service-level error embedded in an HTTP 200 response.
type ResultError struct {
	Content string `json:"content"`
}

// RawArrival is one predicted or scheduled arrival as TriMet reports it.
// Timestamps are epoch milliseconds; zero means absent.
type RawArrival struct {
	Route     int     `json:"route"`
	LocID     int     `json:"locid"`
	FullSign  string  `json:"fullSign"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
	Estimated int64   `json:"estimated,omitempty"`
	Scheduled int64   `json:"scheduled,omitempty"`
	Feet      float64 `json:"feet,omitempty"`
}

type ArrivalLocation struct {
	ID   int     `json:"id"`
	Desc string  `json:"desc"`
	Dir  string  `json:"dir,omitempty"`
	Lng  float64 `json:"lng"`
	Lat  float64 `json:"lat"`
}

// StopsResponse is the v1 stops service payload with routes and
// route directions expanded.
type StopsResponse struct {
	ResultSet StopsResultSet `json:"resultSet"`
}

type StopsResultSet struct {
	Error     *ResultError        `json:"error,omitempty"`
	QueryTime int64               `json:"queryTime"`
	Locations []DirectoryLocation `json:"location"`
}

type DirectoryLocation struct {
	LocID  int              `json:"locid"`
	Desc   string           `json:"desc"`
	Dir    string           `json:"dir,omitempty"`
	Lng    float64          `json:"lng"`
	Lat    float64          `json:"lat"`
	Routes []DirectoryRoute `json:"route,omitempty"`
}

type DirectoryRoute struct {
	Route int        `json:"route"`
	Type  string     `json:"type"`
	Desc  string     `json:"desc"`
	Dirs  []RouteDir `json:"dir"`
}

// RouteDir is a direction of a route; Dir is 0 for outbound and 1 for inbound.
type RouteDir struct {
	Dir  int    `json:"dir"`
	Desc string `json:"desc"`
}
