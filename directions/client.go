package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"itinera/models"
	"itinera/polyline"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com"
	DefaultTimeout = 10 * time.Second
)

// ClientConfig configures the Google Directions client. Zero values pick
// the defaults above; RequestsPerSecond <= 0 disables outbound throttling.
type ClientConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the Google Directions API. It makes exactly one outbound
// call per ComputeRoute and never retries; wrap it with Resilient for that.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

func (c *Client) ComputeRoute(ctx context.Context, req Request) (*models.RouteResult, error) {
	mode, err := req.normalize()
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("route request abandoned: %w", ctx.Err())
			}
			return nil, &ProviderError{Status: StatusRateLimited, Err: err}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.requestURL(req, mode), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// The caller went away; whatever comes back is discarded.
			return nil, fmt.Errorf("route request abandoned: %w", ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			log.Printf("[Directions] Timeout after %v", time.Since(start))
			return nil, &ProviderError{Status: StatusTimeout, Message: c.timeout.String(), Err: err}
		}
		log.Printf("[Directions] Request failed: %v", err)
		return nil, &ProviderError{Status: StatusUnavailable, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("[Directions] HTTP %d: %s", resp.StatusCode, string(body))
		return nil, &ProviderError{
			Status:  fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: strings.TrimSpace(string(body)),
		}
	}

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("route request abandoned: %w", ctx.Err())
		}
		if callCtx.Err() != nil {
			return nil, &ProviderError{Status: StatusTimeout, Message: c.timeout.String(), Err: err}
		}
		return nil, &ProviderError{Status: StatusBadResponse, Message: "failed to decode response", Err: err}
	}

	if payload.Status != "OK" {
		log.Printf("[Directions] Provider status %s: %s", payload.Status, payload.ErrorMessage)
		return nil, &ProviderError{Status: payload.Status, Message: payload.ErrorMessage}
	}
	if len(payload.Routes) == 0 || len(payload.Routes[0].Legs) == 0 {
		return nil, &ProviderError{Status: "ZERO_RESULTS", Message: "no routes found in response"}
	}

	result, err := processRoute(payload.Routes[0], req.Stops(), mode)
	if err != nil {
		return nil, err
	}
	log.Printf("[Directions] Route computed: mode=%s stops=%d distance=%.2fkm in %v",
		mode, len(result.Stops), result.DistanceKm, time.Since(start))
	return result, nil
}

func (c *Client) requestURL(req Request, mode models.TravelMode) string {
	params := url.Values{}
	params.Set("origin", formatLatLng(req.Origin.Coordinates))
	params.Set("destination", formatLatLng(req.Destination.Coordinates))
	params.Set("mode", string(mode))
	if len(req.Waypoints) > 0 {
		points := make([]string, len(req.Waypoints))
		for i, w := range req.Waypoints {
			points[i] = formatLatLng(w.Coordinates)
		}
		params.Set("waypoints", strings.Join(points, "|"))
	}
	params.Set("key", c.apiKey)
	return c.baseURL + "/maps/api/directions/json?" + params.Encode()
}

// processRoute converts the first provider route to our RouteResult. With
// waypoints the provider returns one leg per hop; totals cover all legs.
func processRoute(route directionsRoute, stops []models.RouteStop, mode models.TravelMode) (*models.RouteResult, error) {
	path, err := polyline.Decode(route.OverviewPolyline.Points)
	if err != nil {
		return nil, &ProviderError{Status: StatusBadResponse, Message: "invalid overview polyline", Err: err}
	}

	result := &models.RouteResult{
		Stops:    stops,
		Mode:     mode,
		Polyline: route.OverviewPolyline.Points,
		Path:     path,
		Steps:    []models.RouteStep{},
	}

	var meters int64
	for _, leg := range route.Legs {
		meters += leg.Distance.Value
		result.DurationSeconds += leg.Duration.Value
		for _, s := range leg.Steps {
			result.Steps = append(result.Steps, models.RouteStep{
				Instruction:     stripHTML(s.HTMLInstructions),
				DistanceKm:      float64(s.Distance.Value) / 1000,
				DurationSeconds: s.Duration.Value,
			})
		}
	}
	result.DistanceKm = float64(meters) / 1000
	return result, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML turns the provider's html_instructions into plain text.
func stripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

func formatLatLng(c models.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

type directionsResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Routes       []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Legs             []directionsLeg `json:"legs"`
	OverviewPolyline struct {
		Points string `json:"points"`
	} `json:"overview_polyline"`
}

type textValue struct {
	Text  string `json:"text"`
	Value int64  `json:"value"`
}

type directionsLeg struct {
	Distance textValue        `json:"distance"`
	Duration textValue        `json:"duration"`
	Steps    []directionsStep `json:"steps"`
}

type directionsStep struct {
	HTMLInstructions string    `json:"html_instructions"`
	Distance         textValue `json:"distance"`
	Duration         textValue `json:"duration"`
}
