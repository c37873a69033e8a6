package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowSpecResolve(t *testing.T) {
	now := time.Date(2024, 6, 14, 15, 30, 0, 0, time.UTC)

	t.Run("period", func(t *testing.T) {
		w, err := WindowSpec{Period: "3mo"}.Resolve(now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 3, 14), w.From)
		assert.Equal(t, date(2024, 6, 14), w.To)
		assert.Equal(t, "2024-03-14..2024-06-14", w.String())
	})

	t.Run("ytd and max", func(t *testing.T) {
		w, err := WindowSpec{Period: "ytd"}.Resolve(now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 1, 1), w.From)

		w, err = WindowSpec{Period: "MAX"}.Resolve(now)
		require.NoError(t, err)
		assert.Equal(t, date(1970, 1, 1), w.From)
	})

	t.Run("anchor window", func(t *testing.T) {
		w, err := WindowSpec{Period: "1y", Anchor: date(2024, 5, 1)}.Resolve(now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 4, 1), w.From)
		assert.Equal(t, date(2024, 5, 3), w.To)
	})

	t.Run("anchor near today is clamped", func(t *testing.T) {
		w, err := WindowSpec{Anchor: date(2024, 6, 13)}.Resolve(now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 6, 14), w.To)
	})

	t.Run("explicit range wins", func(t *testing.T) {
		w, err := WindowSpec{Period: "5d", Anchor: date(2024, 5, 1), From: date(2023, 1, 1), To: date(2023, 2, 1)}.Resolve(now)
		require.NoError(t, err)
		assert.Equal(t, Window{From: date(2023, 1, 1), To: date(2023, 2, 1)}, w)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := WindowSpec{Period: "7w"}.Resolve(now)
		assert.Error(t, err)
		_, err = WindowSpec{From: date(2024, 2, 1), To: date(2024, 1, 1)}.Resolve(now)
		assert.Error(t, err)
		_, err = WindowSpec{To: date(2024, 1, 1)}.Resolve(now)
		assert.Error(t, err)
		_, err = WindowSpec{Anchor: date(2024, 7, 1)}.Resolve(now)
		assert.Error(t, err)
	})
}
