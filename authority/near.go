package authority

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"ciudamos/types"
)

const earthRadiusKM = 6371.0

// DistanceKM is the great-circle distance between two coordinates.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return angleToKM(a.Distance(b))
}

func angleToKM(a s1.Angle) float64 {
	return a.Radians() * earthRadiusKM
}

// Near keeps the reports within radiusKM of the given point, preserving order.
// A non-positive radius disables the filter.
func Near(reports []types.Report, lat, lon, radiusKM float64) []types.Report {
	if radiusKM <= 0 {
		return reports
	}
	out := make([]types.Report, 0, len(reports))
	for _, r := range reports {
		if DistanceKM(lat, lon, r.Latitude, r.Longitude) <= radiusKM {
			out = append(out, r)
		}
	}
	return out
}
