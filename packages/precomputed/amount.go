package precomputed

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// NanominaPerMina is the number of nanomina in one mina.
	NanominaPerMina uint64 = 1_000_000_000

	nanominaDecimals = 9
)

// ParseAmount converts a decimal mina amount ("720", "0.01", "1.000000001") into nanomina.
func ParseAmount(decimal string) (nanomina uint64, err error) {
	if decimal == "" {
		return 0, errors.Errorf("empty amount: %w", ErrMalformedAmount)
	}

	whole, fraction, hasFraction := strings.Cut(decimal, ".")
	if hasFraction && (len(fraction) == 0 || len(fraction) > nanominaDecimals) {
		return 0, errors.Errorf("amount %q: %w", decimal, ErrMalformedAmount)
	}

	wholeValue, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, errors.Errorf("amount %q (%v): %w", decimal, err, ErrMalformedAmount)
	}
	if wholeValue > (^uint64(0))/NanominaPerMina {
		return 0, errors.Errorf("amount %q overflows: %w", decimal, ErrMalformedAmount)
	}
	nanomina = wholeValue * NanominaPerMina

	if hasFraction {
		fractionValue, fractionErr := strconv.ParseUint(fraction+strings.Repeat("0", nanominaDecimals-len(fraction)), 10, 64)
		if fractionErr != nil {
			return 0, errors.Errorf("amount %q (%v): %w", decimal, fractionErr, ErrMalformedAmount)
		}
		nanomina += fractionValue
	}

	return nanomina, nil
}

// FormatAmount renders nanomina as a decimal mina string without trailing zeros.
func FormatAmount(nanomina uint64) string {
	whole := strconv.FormatUint(nanomina/NanominaPerMina, 10)
	fraction := nanomina % NanominaPerMina
	if fraction == 0 {
		return whole
	}

	fractionString := strconv.FormatUint(fraction, 10)
	fractionString = strings.Repeat("0", nanominaDecimals-len(fractionString)) + fractionString

	return whole + "." + strings.TrimRight(fractionString, "0")
}
