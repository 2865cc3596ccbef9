package geocode

import (
	"context"
	"fmt"
	"sync"

	"googlemaps.github.io/maps"
)

// Geocoder resolves report coordinates to a human readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// mapsClient is a singleton maps client instance.
var (
	mapsClient *maps.Client
	clientErr  error
	clientOnce sync.Once
)

// InitMapsClient initializes and returns a singleton Google Maps client.
func InitMapsClient(apiKey string) (*maps.Client, error) {
	clientOnce.Do(func() {
		if apiKey == "" {
			clientErr = fmt.Errorf("MAPS_CREDENTIALS environment variable not set")
			return
		}
		mapsClient, clientErr = maps.NewClient(maps.WithAPIKey(apiKey))
	})
	return mapsClient, clientErr
}

// MapsGeocoder reverse geocodes through the Google Maps Geocoding API.
type MapsGeocoder struct {
	client   *maps.Client
	language string
}

func NewMapsGeocoder(client *maps.Client) *MapsGeocoder {
	return &MapsGeocoder{client: client, language: "es"}
}

// ReverseGeocode returns the formatted address of the best match, or "" when
// the API has no result for the point.
func (g *MapsGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: g.language,
	}
	results, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode %.5f,%.5f: %w", lat, lng, err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}
