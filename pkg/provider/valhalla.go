package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/util"
	"go.uber.org/zap"
)

// HTTPProvider implements RouteProvider against a Nominatim instance for
// search/geocoding and a Valhalla instance for directions.
type HTTPProvider struct {
	log          *zap.Logger
	client       *http.Client
	nominatimURL string
	valhallaURL  string
	userAgent    string
}

func NewHTTPProvider(log *zap.Logger, nominatimURL, valhallaURL string) *HTTPProvider {
	return &HTTPProvider{
		log:          log,
		client:       &http.Client{Timeout: 15 * time.Second},
		nominatimURL: nominatimURL,
		valhallaURL:  valhallaURL,
		userAgent:    "tripnav/1.0",
	}
}

type valhallaLocation struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

type valhallaRequest struct {
	Locations []valhallaLocation `json:"locations"`
	Costing   string             `json:"costing"`
	Units     string             `json:"units"`
}

type valhallaManeuver struct {
	Type            int     `json:"type"`
	Instruction     string  `json:"instruction"`
	Length          float64 `json:"length"` // km
	BeginShapeIndex int     `json:"begin_shape_index"`
	EndShapeIndex   int     `json:"end_shape_index"`
}

type valhallaLeg struct {
	Maneuvers []valhallaManeuver `json:"maneuvers"`
	Shape     string             `json:"shape"`
}

type valhallaResponse struct {
	Trip struct {
		Legs    []valhallaLeg `json:"legs"`
		Summary struct {
			Time   float64 `json:"time"`   // seconds
			Length float64 `json:"length"` // km
		} `json:"summary"`
	} `json:"trip"`
}

func (p *HTTPProvider) Route(ctx context.Context, from, to geo.Coordinate) (*datastructure.Route, error) {
	reqBody := valhallaRequest{
		Locations: []valhallaLocation{
			{Lat: from.GetLat(), Lon: from.GetLon(), Type: "break"},
			{Lat: to.GetLat(), Lon: to.GetLon(), Type: "break"},
		},
		Costing: "auto",
		Units:   "kilometers",
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/route", p.valhallaURL), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("valhalla request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, util.WrapErrorf(nil, util.ErrNoRouteAvailable,
			"no route from %.6f,%.6f to %.6f,%.6f", from.GetLat(), from.GetLon(), to.GetLat(), to.GetLon())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("valhalla returned status %d", resp.StatusCode)
	}

	var vr valhallaResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("decode valhalla response: %w", err)
	}
	if len(vr.Trip.Legs) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrNoRouteAvailable,
			"valhalla returned a trip with no legs")
	}

	return p.buildRoute(vr)
}

func (p *HTTPProvider) buildRoute(vr valhallaResponse) (*datastructure.Route, error) {
	var (
		steps    []datastructure.RouteStep
		polyline []geo.Coordinate
	)

	for _, leg := range vr.Trip.Legs {
		// valhalla encodes leg shapes with 1e6 precision
		shape, err := geo.CoordsFromPolyline(leg.Shape, 1e6)
		if err != nil {
			return nil, fmt.Errorf("decode leg shape: %w", err)
		}
		polyline = append(polyline, shape...)

		for _, m := range leg.Maneuvers {
			begin := util.Clamp(m.BeginShapeIndex, 0, len(shape))
			end := util.Clamp(m.EndShapeIndex+1, begin, len(shape))
			steps = append(steps, datastructure.NewRouteStep(
				m.Instruction,
				shape[begin:end],
				m.Length*1000.0,
			))
		}
	}

	if len(steps) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrNoRouteAvailable, "valhalla trip has no maneuvers")
	}

	return datastructure.NewRoute(steps,
		vr.Trip.Summary.Length*1000.0,
		vr.Trip.Summary.Time,
		polyline)
}
