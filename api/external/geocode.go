/* geocode.go
 * Reverse geocoding of round answers via the BigDataCloud api. Failures are
 * swallowed per round so a geocoding outage never blocks finishing a game.
 */

package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"geotourney-bot/api/shared"
)

const geocodeBaseURL = "https://api.bigdatacloud.net"

// Geocoder annotates round coordinates with country data. An empty api key
// disables lookups and returns the bare coordinates.
type Geocoder struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewGeocoder(apiKey string) *Geocoder {
	return &Geocoder{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: geocodeBaseURL,
		apiKey:  apiKey,
	}
}

type geocodeResponse struct {
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
}

// Locations resolves the country for each round answer.
func (g *Geocoder) Locations(ctx context.Context, rounds []shared.RoundAnswer) []shared.RoundAnswer {
	out := make([]shared.RoundAnswer, 0, len(rounds))
	for _, round := range rounds {
		answer := shared.RoundAnswer{Lat: round.Lat, Lng: round.Lng}
		if g.apiKey != "" {
			if resp, err := g.reverseGeocode(ctx, round.Lat, round.Lng); err == nil {
				answer.CountryCode = resp.CountryCode
				answer.CountryName = resp.CountryName
			}
		}
		out = append(out, answer)
	}
	return out
}

func (g *Geocoder) reverseGeocode(ctx context.Context, lat, lng float64) (*geocodeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/data/reverse-geocode?latitude=%s&longitude=%s&localityLanguage=en&key=%s",
		g.baseURL,
		url.QueryEscape(fmt.Sprintf("%g", lat)),
		url.QueryEscape(fmt.Sprintf("%g", lng)),
		url.QueryEscape(g.apiKey))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	response, err := g.http.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request returned status %d", response.StatusCode)
	}
	var decoded geocodeResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}
