package distance

const (
	FeetPerMile        = 5280.0
	MetersPerFoot      = 0.3048
	MetersPerKilometer = 1000.0
)

// Measurement is a single distance expressed in every unit riders ask for.
type Measurement struct {
	Feet       float64 `json:"feet"`
	Miles      float64 `json:"miles"`
	Meters     float64 `json:"meters"`
	Kilometers float64 `json:"kilometers"`
}

// FromFeet derives all units from a distance in feet. Negative input is
// treated as zero.
func FromFeet(feet float64) Measurement {
	if feet < 0 {
		feet = 0
	}
	meters := feet * MetersPerFoot
	return Measurement{
		Feet:       feet,
		Miles:      feet / FeetPerMile,
		Meters:     meters,
		Kilometers: meters / MetersPerKilometer,
	}
}
