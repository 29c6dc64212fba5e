package errors

import (
	"fmt"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := Wrap(sentinel, "load roster")
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "load roster: test error", wrapped.Error())

	// Ensure log values are coming through.
	var annotated *AnnotatedError
	require.True(t, As(err, &annotated))
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	require.GreaterOrEqual(t, sourceIdx, 0)
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "nothing to wrap"))
}

func TestSlogError(t *testing.T) {
	sentinel := NewSentinel("roster unavailable")
	inner := Wrap(sentinel, "query characters", slog.String("table", "characters"))
	outer := Wrap(fmt.Errorf("plain wrapper: %w", inner), "load roster")

	attr := SlogError(outer)
	require.Equal(t, "error", attr.Key)
	group := attr.Value.Group()
	require.Contains(t, group, slog.String("message", outer.Error()))

	keys := make([]string, 0, len(group))
	for _, a := range group {
		keys = append(keys, a.Key)
	}
	require.Equal(t, []string{"message", "trace0", "trace1"}, keys)
	require.Contains(t, group[2].Value.Group(), slog.String("table", "characters"))
}
