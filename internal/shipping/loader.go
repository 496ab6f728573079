package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Loader reads a shipping rate table from some backing store.
type Loader interface {
	// Load reads the rate table identified by ref (file path or object key).
	Load(ctx context.Context, ref string) (*RateTable, error)
}

// fileLoader implements Loader for local JSON rate files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based rate table loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "shipping-loader").Logger(),
	}
}

// Load reads a JSON rate file mapping shipping options to flat costs.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*RateTable, error) {
	l.logger.Info().Str("file", filePath).Msg("loading shipping rate table")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open rate file")
		return nil, fmt.Errorf("failed to open rate file %s: %w", filePath, err)
	}
	defer file.Close()

	table, err := parseRates(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to parse rate file")
		return nil, fmt.Errorf("failed to parse rate file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("options", len(table.rates)).
		Msg("shipping rate table loaded")

	return table, nil
}

// parseRates decodes a JSON object of option -> cost and validates it.
func parseRates(r io.Reader) (*RateTable, error) {
	var raw map[string]decimal.Decimal
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid rate table JSON: %w", err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("rate table is empty")
	}

	for option, cost := range raw {
		if cost.IsNegative() {
			return nil, fmt.Errorf("negative rate for option %q", option)
		}
	}

	return &RateTable{rates: raw}, nil
}
