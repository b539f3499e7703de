package query

import (
	"context"
	"strings"

	"forecast-backend/domain/forecast"
	"forecast-backend/domain/versioning"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Variant is the version-specific behaviour of the query endpoint.
type Variant struct {
	Name string
	// Rewrite, when set, cleans the raw query before it is parsed again from scratch.
	Rewrite RewriteHook
	// UnsupportedKeys are query options this variant rejects instead of ignoring.
	UnsupportedKeys []string
}

// Recorder receives one event per directive that was parsed, stripped,
// clamped or defaulted.
type Recorder interface {
	RecordDirective(version, directive, action string)
}

// Outcome is everything the pipeline produced for one request.
type Outcome struct {
	Directives  DirectiveSet
	Enforcement Enforcement
	Result      Result
}

// Pipeline runs parse, rewrite, enforce and apply for one request at a time.
// It keeps no per-request state.
type Pipeline struct {
	enforcer *Enforcer
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// NewPipeline creates a pipeline. recorder may be nil.
func NewPipeline(enforcer *Enforcer, logger *zap.Logger, recorder Recorder) *Pipeline {
	return &Pipeline{
		enforcer: enforcer,
		logger:   logger,
		recorder: recorder,
		tracer:   otel.Tracer("forecast-backend/application/query"),
	}
}

// Prepare parses raw, runs the variant's rewrite hook and enforces the policy.
// With a rewrite hook the original string is still parsed first so that
// malformed client input is reported rather than silently rewritten away.
func (p *Pipeline) Prepare(ctx context.Context, raw string, version versioning.APIVersion, variant Variant) (DirectiveSet, Enforcement, error) {
	_, span := p.tracer.Start(ctx, "query.Prepare", trace.WithAttributes(
		attribute.String("api.version", version.String()),
		attribute.String("query.variant", variant.Name),
	))
	defer span.End()

	parser := NewParser(variant.UnsupportedKeys...)
	set, err := parser.Parse(raw)
	if err != nil {
		span.RecordError(err)
		return DirectiveSet{}, Enforcement{}, err
	}

	if variant.Rewrite != nil {
		rewritten := variant.Rewrite(raw)
		p.logger.Debug("Query rewritten",
			zap.String("variant", variant.Name),
			zap.String("original", raw),
			zap.String("rewritten", rewritten),
		)
		if set, err = parser.Parse(rewritten); err != nil {
			span.RecordError(err)
			return DirectiveSet{}, Enforcement{}, err
		}
	}

	v := version.String()
	for _, kind := range set.Present() {
		p.record(v, kind, "parsed")
	}

	enforced, report := p.enforcer.Enforce(set, version)
	for _, kind := range report.Stripped {
		p.record(v, kind, "stripped")
	}
	if report.Clamped {
		p.record(v, DirectiveTop, "clamped")
	}
	if report.Defaulted {
		p.record(v, DirectiveTop, "defaulted")
	}

	if len(report.Stripped) > 0 || report.Clamped {
		p.logger.Debug("Query policy applied",
			zap.String("api_version", v),
			zap.String("stripped", joinKinds(report.Stripped)),
			zap.Bool("clamped", report.Clamped),
			zap.Int("max_top", p.enforcer.Constraints().MaxTop()),
		)
	}

	span.SetAttributes(attribute.String("query.directives", enforced.String()))
	return enforced, report, nil
}

// Execute prepares the directives and applies them to records.
func (p *Pipeline) Execute(ctx context.Context, raw string, version versioning.APIVersion, variant Variant, records []forecast.Record) (Outcome, error) {
	set, report, err := p.Prepare(ctx, raw, version, variant)
	if err != nil {
		return Outcome{}, err
	}

	_, span := p.tracer.Start(ctx, "query.Apply", trace.WithAttributes(
		attribute.Int("records.in", len(records)),
	))
	result := Apply(set, records)
	span.SetAttributes(attribute.Int("records.out", len(result.Items)))
	span.End()

	return Outcome{Directives: set, Enforcement: report, Result: result}, nil
}

// Ceiling applies the page-size ceiling and nothing else. The cached variant
// uses it in place of Execute.
func (p *Pipeline) Ceiling(records []forecast.Record) Result {
	maxTop := p.enforcer.Constraints().MaxTop()
	return Apply(DirectiveSet{Top: &maxTop}, records)
}

func (p *Pipeline) record(version string, kind DirectiveKind, action string) {
	if p.recorder != nil {
		p.recorder.RecordDirective(version, string(kind), action)
	}
}

func joinKinds(kinds []DirectiveKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}
