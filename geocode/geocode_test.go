package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"googlemaps.github.io/maps"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *MapsGeocoder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := maps.NewClient(maps.WithAPIKey("AIza-test"), maps.WithBaseURL(server.URL))
	if err != nil {
		t.Fatal(err)
	}
	return NewMapsGeocoder(client)
}

func TestReverseGeocode(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("latlng") == "" {
			t.Errorf("missing latlng in %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("language") != "es" {
			t.Errorf("language = %q", r.URL.Query().Get("language"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Plaza de la Constitución, Centro, CDMX"}]}`))
	})

	addr, err := g.ReverseGeocode(context.Background(), 19.4326, -99.1332)
	if err != nil {
		t.Fatal(err)
	}
	if addr != "Plaza de la Constitución, Centro, CDMX" {
		t.Fatalf("address = %q", addr)
	}
}

func TestReverseGeocodeError(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`))
	})
	if _, err := g.ReverseGeocode(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error")
	}
}
