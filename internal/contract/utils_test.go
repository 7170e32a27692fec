package contract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "smallest value possible", input: 0.0, expected: WeakValue},
		{name: "just before fair", input: 0.39, expected: WeakValue},
		{name: "exactly fair", input: 0.4, expected: FairValue},
		{name: "exactly good", input: 0.6, expected: GoodValue},
		{name: "exactly best", input: 0.8, expected: BestValue},
		{name: "largest value possible", input: 1.0, expected: BestValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabelKeepsText(t *testing.T) {
	assert.Contains(t, GetColorLabel(0.9), BestValue)
	assert.Contains(t, GetColorLabel(0.1), WeakValue)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcdefg...", TruncateText("abcdefghijklmnop", 10))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3), "tiny widths leave text alone")
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("perhaps")
	assert.Error(t, err)
}

func TestParseMetricList(t *testing.T) {
	assert.Equal(t, []string{"F1-score", "Global score"}, ParseMetricList(" F1-score , Global score,"))
	assert.Nil(t, ParseMetricList(""))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ConfigErrorf("bad type %q", "x"), "configuration"},
		{ValidationErrorf("empty"), "validation"},
		{fmt.Errorf("%w: taken", ErrConflict), "conflict"},
		{fmt.Errorf("wrap: %w", ErrNotFound), "not-found"},
		{Unavailable("mlflow", errors.New("dial tcp")), "unavailable"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("neo4j", cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "neo4j")
}
