package quote

import (
	"regexp"

	"github.com/rshade/pecunia/internal/engine/cache"
)

// Request is either a QuoteRequest or a CommandRequest.
type Request interface {
	isRequest()
}

// QuoteRequest resolves one or more attributes of a symbol.
type QuoteRequest struct {
	// Symbol is the ticker, optionally exchange-qualified ("NASDAQ:GOOGL").
	Symbol string
	// Attributes is a single attribute or a comma-separated list.
	Attributes string
	// Candidates are the raw source values, aligned with Attributes by index.
	Candidates []cache.Value
	// Date is an ISO date; empty means today.
	Date string
}

// CommandRequest runs a maintenance command.
type CommandRequest struct {
	Command   string
	Symbol    string
	Attribute string
	Date      string
	Option    string
}

func (QuoteRequest) isRequest()   {}
func (CommandRequest) isRequest() {}

//nolint:gochecknoglobals // compiled once, read-only.
var commandToken = regexp.MustCompile(`^[A-Z?]+$`)

// ClassifyLegacy builds a Request from the legacy positional arguments. The call is a command
// when cmdOption is set, or when the only candidate is a non-empty string made of uppercase
// ASCII letters and '?'. Such a candidate is taken as the command name.
func ClassifyLegacy(symbol, attributes string, candidates []cache.Value, date, cmdOption string) Request {
	token := ""
	if len(candidates) == 1 {
		token, _ = candidates[0].Text()
	}

	if cmdOption != "" || commandToken.MatchString(token) {
		return CommandRequest{
			Command:   token,
			Symbol:    symbol,
			Attribute: attributes,
			Date:      date,
			Option:    cmdOption,
		}
	}

	return QuoteRequest{
		Symbol:     symbol,
		Attributes: attributes,
		Candidates: candidates,
		Date:       date,
	}
}
