package quote

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/logging"
)

// Source sentinels.
const (
	Loading       = "Loading..."
	NotAvailable  = "#N/A"
	ErrorSentinel = "#ERROR!"
)

// unknownCommand is returned when no CommandHandler is configured.
const unknownCommand = "Unknown command. Use '?' for help."

// Disposition is how the policy treats a candidate value.
type Disposition int

const (
	// Trusted values are cached and returned unchanged.
	Trusted Disposition = iota
	// Pending values ("Loading...") are masked by the cache when possible.
	Pending
	// Unavailable values ("#N/A", "#ERROR!", empty) are replaced by the cache or "#N/A".
	Unavailable
)

// String returns the disposition name.
func (d Disposition) String() string {
	switch d {
	case Trusted:
		return "trusted"
	case Pending:
		return "pending"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Classify returns the disposition of a candidate value.
func Classify(candidate cache.Value) Disposition {
	if candidate.IsAbsent() || candidate.IsEmpty() {
		return Unavailable
	}
	text, ok := candidate.Text()
	if !ok {
		return Trusted
	}
	switch text {
	case Loading:
		return Pending
	case NotAvailable, ErrorSentinel:
		return Unavailable
	default:
		return Trusted
	}
}

// Cache is the engine surface the policy needs.
type Cache interface {
	Read(ctx context.Context, symbol, attribute, date string) (cache.Value, bool)
	Write(ctx context.Context, symbol, attribute string, value cache.Value, date string)
}

// CommandHandler executes command requests.
type CommandHandler interface {
	HandleCommand(ctx context.Context, req CommandRequest) cache.Value
}

// Result is the outcome of Resolve. Values holds one value per attribute; Multi is true
// when the request named more than one attribute.
type Result struct {
	Values []cache.Value
	Multi  bool
}

// Single returns the first value, or an absent value if there is none.
func (r Result) Single() cache.Value {
	if len(r.Values) == 0 {
		return cache.Value{}
	}
	return r.Values[0]
}

// Strings renders every value.
func (r Result) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.String()
	}
	return out
}

// Resolver applies the quote resolution policy over a Cache.
type Resolver struct {
	cache    Cache
	commands CommandHandler
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCommands routes CommandRequests to h.
func WithCommands(h CommandHandler) Option {
	return func(r *Resolver) { r.commands = h }
}

// WithClock sets the time source for default dates.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = logging.ComponentLogger(logger, "quote") }
}

// NewResolver creates a Resolver over c.
func NewResolver(c Cache, opts ...Option) *Resolver {
	r := &Resolver{
		cache:  c,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve handles a quote or command request.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	switch req := req.(type) {
	case QuoteRequest:
		return r.resolveQuote(ctx, req)
	case *QuoteRequest:
		return r.resolveQuote(ctx, *req)
	case CommandRequest:
		return r.runCommand(ctx, req)
	case *CommandRequest:
		return r.runCommand(ctx, *req)
	default:
		return Result{Values: []cache.Value{cache.StringValue("")}}
	}
}

func (r *Resolver) runCommand(ctx context.Context, req CommandRequest) Result {
	if r.commands == nil {
		return Result{Values: []cache.Value{cache.StringValue(unknownCommand)}}
	}
	return Result{Values: []cache.Value{r.commands.HandleCommand(ctx, req)}}
}

// ResolveDate returns date, or today's UTC date when date is empty.
func (r *Resolver) ResolveDate(date string) string {
	if date != "" {
		return date
	}
	return r.now().UTC().Format(time.DateOnly)
}

func (r *Resolver) resolveQuote(ctx context.Context, req QuoteRequest) Result {
	if strings.TrimSpace(req.Symbol) == "" || strings.TrimSpace(req.Attributes) == "" {
		return Result{Values: []cache.Value{cache.StringValue("")}}
	}

	date := r.ResolveDate(req.Date)
	attributes := strings.Split(req.Attributes, ",")

	values := make([]cache.Value, len(attributes))
	for i, attribute := range attributes {
		var candidate cache.Value
		if i < len(req.Candidates) {
			candidate = req.Candidates[i]
		}
		values[i] = r.ResolveOne(ctx, req.Symbol, strings.TrimSpace(attribute), candidate, date)
	}
	return Result{Values: values, Multi: len(attributes) > 1}
}

// ResolveOne applies the policy to a single candidate for an explicit date.
func (r *Resolver) ResolveOne(ctx context.Context, symbol, attribute string, candidate cache.Value, date string) cache.Value {
	switch Classify(candidate) {
	case Pending:
		if cached, ok := r.cache.Read(ctx, symbol, attribute, date); ok {
			r.logger.Debug().Ctx(ctx).
				Str("symbol", symbol).
				Str("attribute", attribute).
				Str("date", date).
				Msg("using cached value while loading")
			return cached
		}
		return cache.StringValue(Loading)

	case Unavailable:
		if cached, ok := r.cache.Read(ctx, symbol, attribute, date); ok {
			r.logger.Debug().Ctx(ctx).
				Str("symbol", symbol).
				Str("attribute", attribute).
				Str("date", date).
				Msg("using cached value")
			return cached
		}
		return cache.StringValue(NotAvailable)

	default:
		r.cache.Write(ctx, symbol, attribute, candidate, date)
		return candidate
	}
}
