package precomputed

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	for decimal, expected := range map[string]uint64{
		"0":           0,
		"720":         720 * NanominaPerMina,
		"0.01":        10_000_000,
		"1.000000001": 1_000_000_001,
		"0.5":         500_000_000,
	} {
		nanomina, err := ParseAmount(decimal)
		require.NoError(t, err, decimal)
		assert.Equal(t, expected, nanomina, decimal)
		assert.Equal(t, decimal, FormatAmount(nanomina))
	}

	for _, invalid := range []string{"", "1.", ".5", "-1", "1.0000000001", "abc", "18446744073709551615"} {
		_, err := ParseAmount(invalid)
		assert.True(t, errors.Is(err, ErrMalformedAmount), invalid)
	}
}
