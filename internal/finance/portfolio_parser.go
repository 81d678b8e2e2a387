package finance

import (
	"fmt"
	"strconv"
	"strings"
)

// RiskCommand is a parsed /sortino request.
type RiskCommand struct {
	Symbols []string
	// RiskFreeRate is nil when the user did not pass rf=.
	RiskFreeRate *float64
}

// ParseRiskCommand parses a risk command string.
// Format: /sortino GLEN.L MRW.L AZN [rf=0.0502]
func ParseRiskCommand(input string) (RiskCommand, error) {
	fields := strings.Fields(input)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		fields = fields[1:]
	}

	var cmd RiskCommand
	seen := make(map[string]bool)
	for _, part := range fields {
		if strings.HasPrefix(strings.ToLower(part), "rf=") {
			rf, err := strconv.ParseFloat(part[3:], 64)
			if err != nil {
				return RiskCommand{}, fmt.Errorf("%w: invalid risk-free rate '%s': %v", ErrConfiguration, part[3:], err)
			}
			cmd.RiskFreeRate = &rf
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(part))
		if seen[symbol] {
			return RiskCommand{}, fmt.Errorf("%w: duplicate symbol: %s", ErrConfiguration, symbol)
		}
		seen[symbol] = true
		cmd.Symbols = append(cmd.Symbols, symbol)
	}

	if len(cmd.Symbols) == 0 {
		return RiskCommand{}, fmt.Errorf("%w: insufficient arguments: need at least one symbol", ErrConfiguration)
	}
	return cmd, nil
}

// SplitSymbols splits a comma or whitespace separated symbol list and upper-cases it.
// Duplicates are kept so that AnalyzerConfig.Validate can reject them.
func SplitSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(strings.TrimSpace(f)))
	}
	return out
}
