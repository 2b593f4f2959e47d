// Package command implements the text command protocol over the finance cache:
// SET, GET, REMOVE, LIST, HISTORY, CLEARCACHE, EXPIRECACHE, TEST and help.
package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/pecunia/internal/engine"
	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/logging"
	"github.com/rshade/pecunia/internal/quote"
)

// Command names.
const (
	Help        = "?"
	Set         = "SET"
	Get         = "GET"
	Remove      = "REMOVE"
	List        = "LIST"
	History     = "HISTORY"
	ClearCache  = "CLEARCACHE"
	ExpireCache = "EXPIRECACHE"
	Test        = "TEST"
)

// Names lists every command in help order.
//
//nolint:gochecknoglobals // read-only command table.
var Names = []string{Set, Get, Remove, List, History, ClearCache, ExpireCache, Test}

// Self-check record written by TEST.
const (
	testSymbol    = "TEST:SYMBOL"
	testAttribute = "price"
	testValue     = 123.45
)

// Engine is the cache surface the dispatcher needs.
type Engine interface {
	Read(ctx context.Context, symbol, attribute, date string) (cache.Value, bool)
	Write(ctx context.Context, symbol, attribute string, value cache.Value, date string)
	RemoveAll(ctx context.Context, symbol, attribute string) int
	ClearAll(ctx context.Context)
	ExpireOlderThan(ctx context.Context, maxAge time.Duration) int
	History(ctx context.Context, symbol, attribute string) []engine.HistoryPoint
	ListAll(ctx context.Context) string
	Today() string
}

// Invocation is one command call.
type Invocation struct {
	// Name is matched case-insensitively.
	Name      string
	Symbol    string
	Attribute string
	// Date defaults to today for SET and GET.
	Date string
	// Option carries the SET value.
	Option string
}

// Dispatcher runs commands against an Engine.
type Dispatcher struct {
	engine      Engine
	expireAfter time.Duration
	logger      zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExpireAfter sets the EXPIRECACHE threshold.
func WithExpireAfter(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.expireAfter = d
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(disp *Dispatcher) { disp.logger = logging.ComponentLogger(logger, "command") }
}

// NewDispatcher creates a Dispatcher over e.
func NewDispatcher(e Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:      e,
		expireAfter: cache.DefaultExpireAfter,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleCommand adapts a quote.CommandRequest.
func (d *Dispatcher) HandleCommand(ctx context.Context, req quote.CommandRequest) cache.Value {
	return d.Dispatch(ctx, Invocation{
		Name:      req.Command,
		Symbol:    req.Symbol,
		Attribute: req.Attribute,
		Date:      req.Date,
		Option:    req.Option,
	})
}

// Dispatch runs inv and returns its result. GET returns the cached value itself; every
// other command returns a message.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) cache.Value {
	name := strings.ToUpper(strings.TrimSpace(inv.Name))
	date := inv.Date
	if date == "" {
		date = d.engine.Today()
	}

	d.logger.Debug().Ctx(ctx).
		Str("command", name).
		Str("symbol", inv.Symbol).
		Str("attribute", inv.Attribute).
		Msg("dispatching command")

	switch name {
	case Help:
		return text("Commands: " + strings.Join(Names, ", "))

	case Set:
		if inv.Option == "" {
			return text("SET requires a value in cmdOption")
		}
		d.engine.Write(ctx, inv.Symbol, inv.Attribute, cache.StringValue(inv.Option), date)
		return text(fmt.Sprintf("Set %s %s = %s", inv.Symbol, inv.Attribute, inv.Option))

	case Get:
		if value, ok := d.engine.Read(ctx, inv.Symbol, inv.Attribute, date); ok {
			return value
		}
		return text("No cache found")

	case History:
		return text(d.history(ctx, inv.Symbol, inv.Attribute))

	case Remove:
		n := d.engine.RemoveAll(ctx, inv.Symbol, inv.Attribute)
		return text(fmt.Sprintf("Removed %d cache entries for %s %s", n, inv.Symbol, inv.Attribute))

	case List:
		return text(d.engine.ListAll(ctx))

	case ClearCache:
		d.engine.ClearAll(ctx)
		return text("All cache cleared")

	case ExpireCache:
		d.engine.ExpireOlderThan(ctx, d.expireAfter)
		return text("Old cache entries expired")

	case Test:
		return text(d.selfTest(ctx))

	default:
		return text("Unknown command. Use '?' for help.")
	}
}

func (d *Dispatcher) history(ctx context.Context, symbol, attribute string) string {
	points := d.engine.History(ctx, symbol, attribute)
	if len(points) == 0 {
		return fmt.Sprintf("No history for %s %s", symbol, attribute)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "History for %s %s:\n", symbol, attribute)
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(&b, "%s: [error]\n", p.Key)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", p.Date, p.Value)
	}
	return b.String()
}

func (d *Dispatcher) selfTest(ctx context.Context) string {
	date := d.engine.Today()
	want := cache.NumberValue(testValue)
	d.engine.Write(ctx, testSymbol, testAttribute, want, date)

	got, ok := d.engine.Read(ctx, testSymbol, testAttribute, date)
	if ok && got.Equal(want) {
		return "Cache test PASSED"
	}
	d.logger.Warn().Ctx(ctx).Stringer("got", got).Bool("found", ok).Msg("cache self-test failed")
	return "Cache test FAILED"
}

func text(s string) cache.Value {
	return cache.StringValue(s)
}

var _ quote.CommandHandler = (*Dispatcher)(nil)
