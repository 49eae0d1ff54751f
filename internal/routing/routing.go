package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/geo"
	"social-explore-client/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrMissingAPIKey is returned when routing is requested without a key
var ErrMissingAPIKey = errors.New("routing api key not configured")

// Route is a path between two points ready to be drawn
type Route struct {
	// Paths are polylines of [longitude, latitude] pairs
	Paths         [][][2]float64
	DistanceKm    float64
	TravelMinutes *int
	Directions    []Step
	// Straight marks an approximate straight-line route
	Straight bool
}

// Step is one turn-by-turn instruction
type Step struct {
	Text       string  `json:"text"`
	LengthKm   float64 `json:"length"`
	TimeMinute float64 `json:"time"`
}

// Solver computes a route between two points
type Solver interface {
	Solve(ctx context.Context, from, to models.Coordinate) (*Route, error)
}

// StraightLine returns the approximate route used when solving fails
func StraightLine(from, to models.Coordinate) *Route {
	return &Route{
		Paths: [][][2]float64{{
			{from.Longitude, from.Latitude},
			{to.Longitude, to.Latitude},
		}},
		DistanceKm: geo.DistanceKm(from, to),
		Straight:   true,
	}
}

// ArcGISSolver calls the ArcGIS route solve REST endpoint
type ArcGISSolver struct {
	serviceURL string
	apiKey     string
	client     *http.Client
}

// NewArcGISSolver creates a solver for serviceURL. An empty apiKey makes
// every Solve fail with ErrMissingAPIKey.
func NewArcGISSolver(serviceURL, apiKey string, client *http.Client) *ArcGISSolver {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArcGISSolver{serviceURL: serviceURL, apiKey: apiKey, client: client}
}

type spatialReference struct {
	WKID int `json:"wkid"`
}

type stopGeometry struct {
	X                float64          `json:"x"`
	Y                float64          `json:"y"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type stopFeature struct {
	Geometry   stopGeometry      `json:"geometry"`
	Attributes map[string]string `json:"attributes"`
}

type stopSet struct {
	Type             string           `json:"type"`
	Features         []stopFeature    `json:"features"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type solveResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Routes struct {
		Features []struct {
			Attributes map[string]any `json:"attributes"`
			Geometry   *struct {
				Paths [][][2]float64 `json:"paths"`
			} `json:"geometry"`
		} `json:"features"`
	} `json:"routes"`
	Directions []struct {
		Features []struct {
			Attributes Step `json:"attributes"`
		} `json:"features"`
	} `json:"directions"`
}

func stop(c models.Coordinate, name string) stopFeature {
	return stopFeature{
		Geometry:   stopGeometry{X: c.Longitude, Y: c.Latitude, SpatialReference: spatialReference{WKID: 4326}},
		Attributes: map[string]string{"Name": name},
	}
}

// Solve requests a driving route from the service
func (s *ArcGISSolver) Solve(ctx context.Context, from, to models.Coordinate) (*Route, error) {
	if s.apiKey == "" {
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: ErrMissingAPIKey}
	}

	stops, err := json.Marshal(stopSet{
		Type:             "features",
		Features:         []stopFeature{stop(from, "Start"), stop(to, "End")},
		SpatialReference: spatialReference{WKID: 4326},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stops: %w", err)
	}

	params := url.Values{}
	params.Set("f", "json")
	params.Set("token", s.apiKey)
	params.Set("stops", string(stops))
	params.Set("returnDirections", "true")
	params.Set("returnRoutes", "true")
	params.Set("directionsLengthUnits", "esriNAUKilometers")
	params.Set("outSR", "4326")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serviceURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build route request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var data solveResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if data.Error != nil {
		msg := data.Error.Message
		if msg == "" {
			msg = "route solve failed"
		}
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: errors.New(msg)}
	}
	if len(data.Routes.Features) == 0 {
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: errors.New("no route returned")}
	}

	feature := data.Routes.Features[0]
	if feature.Geometry == nil || len(feature.Geometry.Paths) == 0 {
		return nil, &apperr.ExternalServiceError{Service: "routing", Err: errors.New("route geometry is invalid")}
	}

	route := &Route{Paths: feature.Geometry.Paths}
	if d, ok := firstNumber(feature.Attributes, "Total_Kilometers", "Shape_Length"); ok {
		route.DistanceKm = d
	} else {
		route.DistanceKm = pathsLength(route.Paths)
	}
	if m, ok := firstNumber(feature.Attributes, "Total_TravelTime", "Total_Minutes"); ok {
		minutes := int(math.Round(m))
		route.TravelMinutes = &minutes
	}
	if len(data.Directions) > 0 {
		for _, f := range data.Directions[0].Features {
			route.Directions = append(route.Directions, f.Attributes)
		}
	}

	log.Debug().
		Float64("distance_km", route.DistanceKm).
		Int("steps", len(route.Directions)).
		Msg("Route solved")
	return route, nil
}

// firstNumber returns the first non-zero numeric attribute among keys
func firstNumber(attrs map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := attrs[k].(float64); ok && v != 0 {
			return v, true
		}
	}
	return 0, false
}

func pathsLength(paths [][][2]float64) float64 {
	var total float64
	for _, path := range paths {
		coords := make([]models.Coordinate, len(path))
		for i, p := range path {
			coords[i] = models.Coordinate{Latitude: p[1], Longitude: p[0]}
		}
		total += geo.PathLengthKm(coords)
	}
	return total
}
