package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/util"

	"github.com/tylerkaska112/tripnav/pkg/datastructure"
)

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	NameDetails struct {
		Name     string `json:"name"`
		Official string `json:"official_name"`
	} `json:"namedetails"`
	Lat        string  `json:"lat"`
	Lon        string  `json:"lon"`
	Importance float64 `json:"importance"`
}

func (p *HTTPProvider) searchNominatim(ctx context.Context, query string, limit int) ([]nominatimResponse, error) {
	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"namedetails":    {"1"},
		"addressdetails": {"1"},
		"limit":          {fmt.Sprintf("%d", limit)},
	}
	apiURL := fmt.Sprintf("%s/search?%s", p.nominatimURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}
	return results, nil
}

func (p *HTTPProvider) SearchCompletions(ctx context.Context, query string) ([]datastructure.Completion, error) {
	results, err := p.searchNominatim(ctx, query, 10)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrNoResult, "no completions for %q", query)
	}

	completions := make([]datastructure.Completion, 0, len(results))
	for _, r := range results {
		title, subtitle := splitDisplayName(r)
		completions = append(completions, datastructure.Completion{
			Title:    title,
			Subtitle: subtitle,
			Token:    encodeToken(r.Lat, r.Lon),
		})
	}
	return completions, nil
}

func (p *HTTPProvider) Resolve(ctx context.Context, token string) (geo.Coordinate, error) {
	c, ok := decodeToken(token)
	if !ok {
		return geo.Coordinate{}, util.WrapErrorf(nil, util.ErrNoResult, "completion token %q cannot be resolved", token)
	}
	return c, nil
}

func (p *HTTPProvider) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	results, err := p.searchNominatim(ctx, address, 1)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if len(results) == 0 {
		return geo.Coordinate{}, util.WrapErrorf(nil, util.ErrAddressNotFound, "no geocode result for %q", address)
	}

	lat, err := util.StringToFloat64(results[0].Lat)
	if err != nil {
		return geo.Coordinate{}, util.WrapErrorf(err, util.ErrAddressNotFound, "bad latitude in geocode result for %q", address)
	}
	lon, err := util.StringToFloat64(results[0].Lon)
	if err != nil {
		return geo.Coordinate{}, util.WrapErrorf(err, util.ErrAddressNotFound, "bad longitude in geocode result for %q", address)
	}
	return geo.NewCoordinate(lat, lon), nil
}

// splitDisplayName turns nominatim's comma-joined display_name into a short
// title plus the remainder as subtitle.
func splitDisplayName(r nominatimResponse) (string, string) {
	title := r.NameDetails.Official
	if title == "" {
		title = r.NameDetails.Name
	}

	parts := strings.SplitN(r.DisplayName, ",", 2)
	if title == "" {
		title = strings.TrimSpace(parts[0])
	}
	subtitle := ""
	if len(parts) > 1 {
		subtitle = strings.TrimSpace(parts[1])
	}
	return title, subtitle
}

// completion tokens carry the already-resolved coordinate so Resolve never has
// to hit the network again.
func encodeToken(lat, lon string) string {
	return lat + "," + lon
}

func decodeToken(token string) (geo.Coordinate, bool) {
	parts := strings.SplitN(token, ",", 2)
	if len(parts) != 2 {
		return geo.Coordinate{}, false
	}
	lat, err := util.StringToFloat64(parts[0])
	if err != nil {
		return geo.Coordinate{}, false
	}
	lon, err := util.StringToFloat64(parts[1])
	if err != nil {
		return geo.Coordinate{}, false
	}
	return geo.NewCoordinate(lat, lon), true
}
