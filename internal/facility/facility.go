package facility

import "math"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Facility is one hospital or clinic entry of the catalog. Distance is only
// set by RankNearest, in kilometres.
type Facility struct {
	Name          string      `json:"name" yaml:"name"`
	City          string      `json:"city" yaml:"city"`
	Specialties   []string    `json:"specialty" yaml:"specialties"`
	Emergency24x7 bool        `json:"emergency24x7" yaml:"emergency24x7"`
	MapURL        string      `json:"maps" yaml:"maps"`
	Location      *Coordinate `json:"location,omitempty" yaml:"location,omitempty"`
	Distance      *float64    `json:"distance,omitempty" yaml:"-"`
}

// Specialty is a named list of facilities, in catalog order.
type Specialty struct {
	Key        string     `json:"key" yaml:"key"`
	Facilities []Facility `json:"facilities" yaml:"facilities"`
}

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
