package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/resilience"
)

// Oracle is the external directions provider. It returns candidate route
// plans for an origin/destination pair, optionally steering around
// avoidance polygons. The engine does not define the provider's transport
// beyond this shape.
type Oracle interface {
	Routes(ctx context.Context, origin, destination models.Coordinate, avoid []models.Polygon) ([]models.RoutePlan, error)
}

// HTTPOracle talks to a directions endpoint over HTTP with a request
// timeout, retry with backoff, and a client-side rate limit.
type HTTPOracle struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	timeout time.Duration
	maxAlts int
}

// NewHTTPOracle creates an oracle client. timeout bounds each route
// request; maxAlts caps the number of alternatives requested.
func NewHTTPOracle(baseURL, apiKey string, timeout time.Duration, maxAlts int) *HTTPOracle {
	return &HTTPOracle{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		retry:   resilience.DefaultRetryConfig(),
		timeout: timeout,
		maxAlts: maxAlts,
	}
}

type oracleRequest struct {
	Origin        models.Coordinate `json:"origin"`
	Destination   models.Coordinate `json:"destination"`
	AvoidPolygons []models.Polygon  `json:"avoid_polygons,omitempty"`
	Alternatives  int               `json:"alternatives"`
}

type oracleRoute struct {
	Polyline        []models.Coordinate `json:"polyline"`
	Steps           []models.RouteStep  `json:"steps"`
	DistanceMeters  float64             `json:"distance_m"`
	DurationSeconds float64             `json:"duration_s"`
}

type oracleResponse struct {
	Routes []oracleRoute `json:"routes"`
}

// Routes requests candidate route plans, retrying transient failures.
func (o *HTTPOracle) Routes(ctx context.Context, origin, destination models.Coordinate, avoid []models.Polygon) ([]models.RoutePlan, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "oracle: rate limit wait")
	}

	plans, err := resilience.DoVal(ctx, o.retry, "oracle.routes", func(ctx context.Context) ([]models.RoutePlan, error) {
		return o.fetch(ctx, origin, destination, avoid)
	})
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, eris.Wrap(models.ErrRouteUnavailable, "oracle: empty response")
	}
	return plans, nil
}

func (o *HTTPOracle) fetch(ctx context.Context, origin, destination models.Coordinate, avoid []models.Polygon) ([]models.RoutePlan, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	body, err := json.Marshal(oracleRequest{
		Origin:        origin,
		Destination:   destination,
		AvoidPolygons: avoid,
		Alternatives:  o.maxAlts,
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "oracle: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			fmt.Errorf("oracle returned status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("oracle returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}

	var decoded oracleResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, eris.Wrap(err, "oracle: decode response")
	}

	now := time.Now().UTC()
	plans := make([]models.RoutePlan, 0, len(decoded.Routes))
	for i, rt := range decoded.Routes {
		plans = append(plans, models.RoutePlan{
			ID:              uuid.NewString(),
			Polyline:        rt.Polyline,
			Steps:           rt.Steps,
			DistanceMeters:  rt.DistanceMeters,
			DurationSeconds: rt.DurationSeconds,
			AlternativeRank: i,
			CreatedAt:       now,
		})
	}
	return plans, nil
}
