package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/util"
	"go.uber.org/zap"
)

func newTestProvider(nominatimURL, valhallaURL string) *HTTPProvider {
	return NewHTTPProvider(zap.NewNop(), nominatimURL, valhallaURL)
}

func TestSearchCompletions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "empire state", q.Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"display_name": "Empire State Building, 350, 5th Avenue, New York, 10118, United States",
			 "namedetails": {"name": "Empire State Building"},
			 "lat": "40.7484405", "lon": "-73.9856644", "importance": 0.83},
			{"display_name": "Empire State Plaza, Albany, New York, United States",
			 "namedetails": {},
			 "lat": "42.6511674", "lon": "-73.7593947", "importance": 0.51}
		]`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, "")
	completions, err := p.SearchCompletions(context.Background(), "empire state")
	require.NoError(t, err)
	require.Len(t, completions, 2)

	assert.Equal(t, "Empire State Building", completions[0].Title)
	assert.Equal(t, "350, 5th Avenue, New York, 10118, United States", completions[0].Subtitle)
	assert.Equal(t, "40.7484405,-73.9856644", completions[0].Token)

	// no namedetails name: title falls back to the display_name head
	assert.Equal(t, "Empire State Plaza", completions[1].Title)
}

func TestSearchCompletionsNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, "")
	_, err := p.SearchCompletions(context.Background(), "zzzzzz")
	require.Error(t, err)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrNoResult))
}

func TestResolve(t *testing.T) {
	p := newTestProvider("", "")

	c, err := p.Resolve(context.Background(), "40.7484405,-73.9856644")
	require.NoError(t, err)
	assert.Equal(t, 40.7484405, c.GetLat())
	assert.Equal(t, -73.9856644, c.GetLon())

	_, err = p.Resolve(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"display_name": "City Hall, New York", "lat": "40.7127281", "lon": "-74.0060152"}]`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, "")
	c, err := p.Geocode(context.Background(), "new york city hall")
	require.NoError(t, err)
	assert.Equal(t, 40.7127281, c.GetLat())
	assert.Equal(t, -74.0060152, c.GetLon())
}

func TestGeocodeAddressNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, "")
	_, err := p.Geocode(context.Background(), "nowhere at all")
	require.Error(t, err)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrAddressNotFound))
}

func TestRoute(t *testing.T) {
	shape := [][]float64{
		{40.748000, -73.986000},
		{40.749000, -73.985000},
		{40.750000, -73.984000},
		{40.751000, -73.983000},
	}
	codec := polyline.Codec{Dim: 2, Scale: 1e6}
	encoded := string(codec.EncodeCoords(nil, shape))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/route", r.URL.Path)

		var req valhallaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.Costing)
		require.Len(t, req.Locations, 2)

		resp := valhallaResponse{}
		resp.Trip.Summary.Time = 95
		resp.Trip.Summary.Length = 0.4
		resp.Trip.Legs = []valhallaLeg{{
			Shape: encoded,
			Maneuvers: []valhallaManeuver{
				{Instruction: "Drive north on 5th Avenue.", Length: 0.25, BeginShapeIndex: 0, EndShapeIndex: 2},
				{Instruction: "You have arrived at your destination.", Length: 0.15, BeginShapeIndex: 2, EndShapeIndex: 3},
			},
		}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	p := newTestProvider("", srv.URL)
	route, err := p.Route(context.Background(),
		geo.NewCoordinate(40.748, -73.986), geo.NewCoordinate(40.751, -73.983))
	require.NoError(t, err)

	require.Equal(t, 2, route.NumSteps())
	assert.Equal(t, 400.0, route.GetTotalDistanceMeters())
	assert.Equal(t, 95.0, route.GetTravelTimeSeconds())
	assert.Len(t, route.GetPolyline(), 4)

	s0 := route.GetStep(0)
	assert.Equal(t, "Drive north on 5th Avenue.", s0.GetInstruction())
	assert.Equal(t, 250.0, s0.GetDistanceMeters())
	assert.Len(t, s0.GetPolyline(), 3)

	// the maneuver point is the step's first shape vertex
	mp, ok := s0.ManeuverPoint()
	require.True(t, ok)
	assert.InDelta(t, 40.748, mp.GetLat(), 1e-5)
	assert.InDelta(t, -73.986, mp.GetLon(), 1e-5)
}

func TestRouteNoRouteAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "No path could be found for input"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newTestProvider("", srv.URL)
	_, err := p.Route(context.Background(), geo.NewCoordinate(0, 0), geo.NewCoordinate(1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrNoRouteAvailable))
}

func TestRouteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newTestProvider("", srv.URL)
	_, err := p.Route(context.Background(), geo.NewCoordinate(0, 0), geo.NewCoordinate(1, 1))
	require.Error(t, err)
	assert.False(t, errors.Is(util.ErrorCode(err), util.ErrNoRouteAvailable))
}
