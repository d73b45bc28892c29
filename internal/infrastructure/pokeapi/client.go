package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pokefinder/backend/internal/domain"
	"github.com/pokefinder/backend/internal/infrastructure/logger"
	"github.com/pokefinder/backend/internal/infrastructure/metrics"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public PokeAPI v2 endpoint
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// DefaultMaxBodyBytes caps a catalog response; full Pokémon records stay well below it
const DefaultMaxBodyBytes int64 = 8 << 20

const (
	endpointPokemon = "pokemon"
	endpointSpecies = "pokemon-species"

	tracerName = "github.com/pokefinder/backend/internal/infrastructure/pokeapi"
)

// ClientConfig holds settings for the catalog client
type ClientConfig struct {
	BaseURL string
	// Timeout of zero leaves the transport default in place; callers cancel through the context.
	Timeout           time.Duration
	RequestsPerMinute int
	Burst             int
	MaxBodyBytes      int64
	TracerProvider    trace.TracerProvider
}

// Client handles communication with the PokeAPI catalog
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	maxBody     int64
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewClient creates a new catalog client
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// PokeAPI has no hard quota but asks clients to stay polite
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 100
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		maxBody:     maxBody,
		logger:      logger.OrNop(log).Named("pokeapi"),
		tracer:      tp.Tracer(tracerName),
	}
}

// doRequest waits for the rate limiter, executes a GET and returns status and body
func (c *Client) doRequest(ctx context.Context, endpoint, reqURL string) (int, []byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrCatalogUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrCatalogUnavailable, err)
	}
	req.Header.Set("User-Agent", "Pokefinder/1.0")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogRequests.WithLabelValues(endpoint, metrics.StatusError).Inc()
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		metrics.CatalogRequests.WithLabelValues(endpoint, metrics.StatusError).Inc()
		return resp.StatusCode, nil, fmt.Errorf("%w: reading body: %v", domain.ErrCatalogUnavailable, err)
	}
	if int64(len(body)) > c.maxBody {
		metrics.CatalogRequests.WithLabelValues(endpoint, metrics.StatusMalformed).Inc()
		return resp.StatusCode, nil, fmt.Errorf("%w: response body exceeds %d bytes", domain.ErrMalformedPayload, c.maxBody)
	}

	return resp.StatusCode, body, nil
}

// FetchPokemon retrieves the primary record for a Pokémon by name.
// The name is lower-cased before it is sent; the catalog matches names exactly.
func (c *Client) FetchPokemon(ctx context.Context, name string) (pokemon *domain.Pokemon, err error) {
	key := strings.ToLower(name)

	ctx, span := c.tracer.Start(ctx, "pokeapi.FetchPokemon",
		trace.WithAttributes(attribute.String("pokemon.name", key)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(key) == "" {
		return nil, domain.ErrInvalidQuery
	}

	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, endpointPokemon, url.PathEscape(key))
	c.logger.Debug("Fetching pokemon", zap.String("name", key), zap.String("url", reqURL))

	status, body, err := c.doRequest(ctx, endpointPokemon, reqURL)
	if err != nil {
		c.logger.Warn("Pokemon request failed", zap.String("name", key), zap.Error(err))
		return nil, err
	}

	if status == http.StatusNotFound {
		metrics.CatalogRequests.WithLabelValues(endpointPokemon, metrics.StatusNotFound).Inc()
		c.logger.Debug("Pokemon not found", zap.String("name", key))
		return nil, fmt.Errorf("%w: %q", domain.ErrPokemonNotFound, key)
	}
	if status != http.StatusOK {
		metrics.CatalogRequests.WithLabelValues(endpointPokemon, metrics.StatusError).Inc()
		c.logger.Warn("Unexpected catalog status",
			zap.String("endpoint", endpointPokemon),
			zap.Int("status", status),
			zap.String("body", truncate(body, 200)),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, status)
	}

	var payload PokemonPayload
	if err := decode(pokemonSchema, body, &payload); err != nil {
		metrics.CatalogRequests.WithLabelValues(endpointPokemon, metrics.StatusMalformed).Inc()
		c.logger.Warn("Malformed pokemon payload", zap.String("name", key), zap.Error(err))
		return nil, err
	}

	metrics.CatalogRequests.WithLabelValues(endpointPokemon, metrics.StatusOK).Inc()
	span.SetAttributes(attribute.Int("pokemon.id", payload.ID))
	return MapToPokemon(&payload), nil
}

// FetchSpecies retrieves the species record for a Pokémon id.
// A Pokémon that resolved upstream always has a species, so every failure here,
// including a 404, is reported as a catalog failure rather than not-found.
func (c *Client) FetchSpecies(ctx context.Context, id int) (species *domain.Species, err error) {
	ctx, span := c.tracer.Start(ctx, "pokeapi.FetchSpecies",
		trace.WithAttributes(attribute.Int("pokemon.id", id)))
	defer func() { endSpan(span, err) }()

	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid species id %d", domain.ErrCatalogUnavailable, id)
	}

	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, endpointSpecies, strconv.Itoa(id))
	c.logger.Debug("Fetching species", zap.Int("id", id), zap.String("url", reqURL))

	status, body, err := c.doRequest(ctx, endpointSpecies, reqURL)
	if err != nil {
		c.logger.Warn("Species request failed", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	if status != http.StatusOK {
		label := metrics.StatusError
		if status == http.StatusNotFound {
			label = metrics.StatusNotFound
		}
		metrics.CatalogRequests.WithLabelValues(endpointSpecies, label).Inc()
		c.logger.Warn("Unexpected catalog status",
			zap.String("endpoint", endpointSpecies),
			zap.Int("status", status),
			zap.Int("id", id),
		)
		return nil, fmt.Errorf("%w: species %d: status %d", domain.ErrCatalogUnavailable, id, status)
	}

	var payload SpeciesPayload
	if err := decode(speciesSchema, body, &payload); err != nil {
		metrics.CatalogRequests.WithLabelValues(endpointSpecies, metrics.StatusMalformed).Inc()
		c.logger.Warn("Malformed species payload", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	metrics.CatalogRequests.WithLabelValues(endpointSpecies, metrics.StatusOK).Inc()
	return MapToSpecies(&payload), nil
}

// decode validates body against schema and unmarshals it into dst
func decode(schema *gojsonschema.Schema, body []byte, dst any) error {
	if err := validatePayload(schema, body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrMalformedPayload, err)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domain.ErrPokemonNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n])
}
