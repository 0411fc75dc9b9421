package geocode

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/David-Botos/linelist-curation/pkg/ioretry"
)

// DefaultArcGISURL is the public world geocoding service
const DefaultArcGISURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer"

const findCandidatesPath = "/findAddressCandidates"

type candidatesResponse struct {
	Candidates []struct {
		Address  string  `json:"address"`
		Score    float64 `json:"score"`
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ArcGISFallback geocodes queries with the ArcGIS findAddressCandidates endpoint
type ArcGISFallback struct {
	client *resty.Client
}

// NewArcGISFallback creates a fallback against baseURL
func NewArcGISFallback(baseURL string, timeout time.Duration) *ArcGISFallback {
	if baseURL == "" {
		baseURL = DefaultArcGISURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &ArcGISFallback{client: client}
}

// Geocode implements Fallback
func (a *ArcGISFallback) Geocode(ctx context.Context, query string) (Point, error) {
	var result candidatesResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"f":            "json",
			"SingleLine":   query,
			"maxLocations": "1",
		}).
		SetResult(&result).
		ForceContentType("application/json").
		Get(findCandidatesPath)
	if err != nil {
		return Point{}, ioretry.Transient(fmt.Errorf("geocoding %q: %w", query, err))
	}
	if resp.StatusCode() >= http.StatusInternalServerError || resp.StatusCode() == http.StatusTooManyRequests {
		return Point{}, ioretry.Transient(fmt.Errorf("geocoding %q: status %d", query, resp.StatusCode()))
	}
	if resp.IsError() {
		return Point{}, fmt.Errorf("geocoding %q: status %d: %s", query, resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		return Point{}, fmt.Errorf("geocoding %q: service error %d: %s", query, result.Error.Code, result.Error.Message)
	}
	if len(result.Candidates) == 0 {
		return Point{}, fmt.Errorf("geocoding %q: %w", query, ErrNoMatch)
	}
	loc := result.Candidates[0].Location
	return Point{Latitude: loc.Y, Longitude: loc.X}, nil
}
