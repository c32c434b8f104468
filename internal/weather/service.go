package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"weatherplugin/internal/external"
	"weatherplugin/internal/types"
)

// failedText is the agent-facing text for page download and parse failures.
const failedText = "请求失败"

// Outcome reasons, recorded as a metric dimension.
const (
	ReasonDelivered     = "delivered"
	ReasonCityNotFound  = "city_not_found"
	ReasonGeoError      = "geo_error"
	ReasonPageError     = "page_error"
	ReasonPageStructure = "page_structure"
)

// OutcomeRecorder observes every query outcome.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, action types.Action, reason string)
}

type noopRecorder struct{}

func (noopRecorder) RecordOutcome(context.Context, types.Action, string) {}

// Query is one weather request. APIKey and DefaultLocation come from the
// plugin configuration; the rest from the caller.
type Query struct {
	Location        string
	Lang            string
	APIKey          types.SecretString
	DefaultLocation string
	ClientAddr      string
}

// ServiceDeps bundles the collaborators of a Service.
type ServiceDeps struct {
	Directory external.CityDirectory
	Pages     external.ForecastPageFetcher
	Locator   external.IPLocator // optional
	Catalog   *Catalog           // optional; DefaultCatalog when nil
	Recorder  OutcomeRecorder    // optional
	Logger    *slog.Logger
}

// Service runs weather queries: resolve, look up, fetch, parse, compose.
type Service struct {
	resolver  *Resolver
	directory external.CityDirectory
	pages     external.ForecastPageFetcher
	parser    *Parser
	recorder  OutcomeRecorder
	logger    *slog.Logger
}

// NewService wires a Service.
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		resolver:  NewResolver(deps.Locator, logger),
		directory: deps.Directory,
		pages:     deps.Pages,
		parser:    NewParser(deps.Catalog),
		recorder:  recorder,
		logger:    logger,
	}
}

// Run executes q. It never returns an error: a missing city asks the user to
// clarify, and any page failure yields the generic failed outcome.
func (s *Service) Run(ctx context.Context, q Query) types.Outcome {
	lang := q.Lang
	if lang == "" {
		lang = types.DefaultLang
	}

	location := s.resolver.Resolve(ctx, q.Location, q.ClientAddr, q.DefaultLocation)
	s.logger.InfoContext(ctx, "weather query",
		"location", location,
		"lang", lang,
		"default_location", q.DefaultLocation,
	)

	city, err := s.directory.LookupCity(ctx, location, q.APIKey)
	if err != nil {
		s.logger.WarnContext(ctx, "city lookup failed", "location", location, "error", err)
		return s.finish(ctx, clarify(location), ReasonGeoError)
	}
	if city == nil {
		s.logger.InfoContext(ctx, "no city matched", "location", location)
		return s.finish(ctx, clarify(location), ReasonCityNotFound)
	}

	doc, err := s.pages.FetchPage(ctx, city.ForecastLink)
	if err != nil {
		s.logger.WarnContext(ctx, "forecast page unavailable",
			"city", city.Name,
			"fx_link", city.ForecastLink,
			"error", err,
		)
		return s.finish(ctx, failed(), ReasonPageError)
	}

	report, err := s.parser.Parse(doc)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, ErrPageStructure) {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "forecast page not parsed", "fx_link", city.ForecastLink, "error", err)
		return s.finish(ctx, failed(), ReasonPageStructure)
	}

	s.logger.InfoContext(ctx, "weather report composed",
		"city", report.CityName,
		"forecast_days", len(report.Forecast),
	)
	return s.finish(ctx, types.Outcome{Action: types.ActionRequestLLM, Text: ComposeReport(*report)}, ReasonDelivered)
}

func (s *Service) finish(ctx context.Context, out types.Outcome, reason string) types.Outcome {
	s.recorder.RecordOutcome(ctx, out.Action, reason)
	return out
}

func clarify(location string) types.Outcome {
	return types.Outcome{
		Action: types.ActionClarify,
		Text:   fmt.Sprintf("未找到相关的城市: %s，请确认地点是否正确", location),
	}
}

func failed() types.Outcome {
	return types.Outcome{Action: types.ActionFailed, Text: failedText}
}
