package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/quote"
)

// ErrInvalidOutput is returned for an unknown --output value.
var ErrInvalidOutput = errors.New("invalid output format")

// outputFormat returns --output, or the configured default when the flag is unset.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	if format == "" {
		format = config.GetDefaultOutputFormat()
	}
	format = strings.ToLower(format)
	switch format {
	case config.OutputText, config.OutputJSON:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q (use %s or %s)", ErrInvalidOutput, format, config.OutputText, config.OutputJSON)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resultJSON is the JSON shape of a resolved request.
type resultJSON struct {
	Values []cache.Value `json:"values"`
	Multi  bool          `json:"multi"`
}

// renderResult prints one value per line in text mode.
func renderResult(w io.Writer, format string, res quote.Result) error {
	if format == config.OutputJSON {
		return writeJSON(w, resultJSON{Values: res.Values, Multi: res.Multi})
	}
	_, err := fmt.Fprintln(w, strings.Join(res.Strings(), "\n"))
	return err
}
