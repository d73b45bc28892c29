package usecase

import (
	"context"

	"github.com/pokefinder/backend/internal/domain"
	"github.com/pokefinder/backend/internal/infrastructure/logger"
	"github.com/pokefinder/backend/internal/infrastructure/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/pokefinder/backend/internal/usecase"

// LookupServiceConfig holds configuration for the lookup service
type LookupServiceConfig struct {
	Language       string
	TracerProvider trace.TracerProvider
}

// LookupService resolves one query into one outcome
type LookupService struct {
	catalog  domain.CatalogClient
	language string
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewLookupService creates a new lookup service with dependencies
func NewLookupService(catalog domain.CatalogClient, config LookupServiceConfig, log *zap.Logger) *LookupService {
	language := config.Language
	if language == "" {
		language = DefaultLanguage
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &LookupService{
		catalog:  catalog,
		language: language,
		logger:   logger.OrNop(log).Named("lookup"),
		tracer:   tp.Tracer(tracerName),
	}
}

// Resolve runs the lookup pipeline for a query.
// Flow: fetch pokemon -> fetch species by id -> resolve category and description -> merge.
// The composite record is only ever returned whole.
func (s *LookupService) Resolve(ctx context.Context, query domain.LookupQuery) domain.Outcome {
	ctx, span := s.tracer.Start(ctx, "lookup.Resolve",
		trace.WithAttributes(attribute.String("lookup.query", query.Key())))
	defer span.End()

	outcome := s.resolve(ctx, query)

	span.SetAttributes(attribute.String("lookup.outcome", string(outcome.Kind)))
	metrics.LookupOutcomes.WithLabelValues(string(outcome.Kind)).Inc()

	switch outcome.Kind {
	case domain.OutcomeFound:
		s.logger.Info("Lookup resolved",
			zap.String("query", query.Name()),
			zap.Int("id", outcome.Pokemon.ID),
		)
	case domain.OutcomeNotFound:
		s.logger.Info("Lookup not found", zap.String("query", query.Name()))
	default:
		span.RecordError(outcome.Err)
		s.logger.Warn("Lookup failed", zap.String("query", query.Name()), zap.Error(outcome.Err))
	}

	return outcome
}

func (s *LookupService) resolve(ctx context.Context, query domain.LookupQuery) domain.Outcome {
	pokemon, err := s.catalog.FetchPokemon(ctx, query.Key())
	if err != nil {
		return domain.FromError(err)
	}

	// A missing species after a successful primary lookup is never "not found"
	species, err := s.catalog.FetchSpecies(ctx, pokemon.ID)
	if err != nil {
		return domain.TransientError(err)
	}

	return domain.Found(&domain.ResolvedPokemon{
		Pokemon:     *pokemon,
		Category:    ResolveCategory(species, s.language),
		Description: ResolveDescription(species, s.language),
	})
}

// Language returns the language code used for localized fields
func (s *LookupService) Language() string {
	return s.language
}
