package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vwapscan/internal/model"
)

const equalityThreshold = 1e-9

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func makeSeries(closes, volumes []float64) model.Series {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Timestamp: day0.AddDate(0, 0, i).UnixMilli(),
			Open:      c,
			High:      c + 1,
			Low:       c - 0.5,
			Close:     c,
			Volume:    volumes[i],
		}
	}
	return model.Series{Ticker: "TEST", Bars: bars}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeVWAP(t *testing.T) {
	t.Run("constant volume reduces to running mean", func(t *testing.T) {
		closes := []float64{10, 12, 11, 15, 9, 13}
		s := makeSeries(closes, constant(len(closes), 500))

		for _, anchor := range []int{0, 2} {
			points, err := ComputeVWAP(s, anchor, PriceClose)
			require.NoError(t, err)
			require.Len(t, points, len(closes)-anchor)

			sum := 0.0
			for i, p := range points {
				sum += closes[anchor+i]
				assert.True(t, p.Defined)
				assert.InDelta(t, sum/float64(i+1), p.Value, equalityThreshold)
			}
		}
	})

	t.Run("anchor point equals bar price", func(t *testing.T) {
		s := makeSeries([]float64{10, 12, 11, 15}, []float64{100, 250, 75, 900})
		for anchor := range s.Bars {
			points, err := ComputeVWAP(s, anchor, PriceClose)
			require.NoError(t, err)
			assert.Equal(t, s.Bars[anchor].Close, points[0].Value)

			points, err = ComputeVWAP(s, anchor, PriceTypical)
			require.NoError(t, err)
			assert.Equal(t, s.Bars[anchor].Typical(), points[0].Value)
		}
	})

	t.Run("weights by volume", func(t *testing.T) {
		s := makeSeries([]float64{10, 20}, []float64{100, 300})
		points, err := ComputeVWAP(s, 0, PriceClose)
		require.NoError(t, err)
		assert.InDelta(t, 17.5, points[1].Value, equalityThreshold)
	})

	t.Run("idempotent", func(t *testing.T) {
		s := makeSeries([]float64{10.1, 12.3, 11.7, 15.2}, []float64{123, 456, 789, 1011})
		a, err := ComputeVWAP(s, 1, PriceTypical)
		require.NoError(t, err)
		b, err := ComputeVWAP(s, 1, PriceTypical)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("zero volume at anchor", func(t *testing.T) {
		s := makeSeries([]float64{10, 11, 12}, []float64{0, 0, 50})
		points, err := ComputeVWAP(s, 0, PriceClose)
		require.ErrorIs(t, err, ErrDivisionByZero)
		require.Len(t, points, 3)
		assert.False(t, points[0].Defined)
		assert.False(t, points[1].Defined)
		assert.True(t, points[2].Defined)
		assert.Equal(t, 12.0, points[2].Value)
		assert.True(t, math.IsNaN(Values(points)[0]))
	})

	t.Run("anchor out of range", func(t *testing.T) {
		s := makeSeries([]float64{10}, []float64{1})
		_, err := ComputeVWAP(s, 1, PriceClose)
		assert.ErrorIs(t, err, ErrAnchorOutOfRange)
		_, err = ComputeVWAP(s, -1, PriceClose)
		assert.ErrorIs(t, err, ErrAnchorOutOfRange)
	})
}

func TestAnchorIndexFor(t *testing.T) {
	s := makeSeries([]float64{1, 2, 3}, []float64{1, 1, 1})
	s.Bars = append(s.Bars[:1], s.Bars[2:]...) // drop day0+1, like a weekend gap

	idx, err := AnchorIndexFor(s, day0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = AnchorIndexFor(s, day0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = AnchorIndexFor(s, day0.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrAnchorOutOfRange)
	_, err = AnchorIndexFor(s, day0.AddDate(0, 0, 3))
	assert.ErrorIs(t, err, ErrAnchorOutOfRange)
}

func TestDetectCrossings(t *testing.T) {
	t.Run("three events around a flat line", func(t *testing.T) {
		closes := []float64{10, 10, 11, 9, 12}
		got, err := DetectCrossings(closes, constant(5, 10))
		require.NoError(t, err)
		assert.Equal(t, []Crossing{
			{Index: 2, Direction: CrossUp},
			{Index: 3, Direction: CrossDown},
			{Index: 4, Direction: CrossUp},
		}, got)
	})

	t.Run("monotonic series crosses once", func(t *testing.T) {
		closes := []float64{8, 9, 10.5, 11, 12}
		got, err := DetectCrossings(closes, constant(5, 10))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2, got[0].Index)
		assert.Equal(t, CrossUp, got[0].Direction)
	})

	t.Run("equal then above is a crossing, equal twice is not", func(t *testing.T) {
		got, err := DetectCrossings([]float64{10, 10, 10}, constant(3, 10))
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = DetectCrossings([]float64{10, 10.01}, constant(2, 10))
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("entirely above or below", func(t *testing.T) {
		got, err := DetectCrossings([]float64{11, 12, 13}, constant(3, 10))
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = DetectCrossings([]float64{9, 8, 7}, constant(3, 10))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("undefined reference breaks the chain", func(t *testing.T) {
		got, err := DetectCrossings([]float64{9, 11, 9}, []float64{math.NaN(), 10, 10})
		require.NoError(t, err)
		assert.Equal(t, []Crossing{{Index: 2, Direction: CrossDown}}, got)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := DetectCrossings([]float64{1, 2}, []float64{1})
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("idempotent", func(t *testing.T) {
		closes := []float64{10, 10, 11, 9, 12}
		a, _ := DetectCrossings(closes, constant(5, 10))
		b, _ := DetectCrossings(closes, constant(5, 10))
		assert.Equal(t, a, b)
	})
}

func TestDetectSeriesCrossings(t *testing.T) {
	s := makeSeries([]float64{20, 10, 10, 30, 5}, []float64{100, 100, 100, 100, 100})
	crossings, points, err := DetectSeriesCrossings(s, 1, PriceClose)
	require.NoError(t, err)
	require.Len(t, points, 4)
	// vwap from index 1: 10, 10, 16.67, 13.75
	require.Len(t, crossings, 2)
	assert.Equal(t, 3, crossings[0].Index)
	assert.Equal(t, CrossUp, crossings[0].Direction)
	assert.Equal(t, s.Bars[3].Time(), crossings[0].Time)
	assert.Equal(t, 4, crossings[1].Index)
	assert.Equal(t, CrossDown, crossings[1].Direction)
}

func TestMostRecentCrossing(t *testing.T) {
	last := day0.AddDate(0, 0, 10)
	crossings := []Crossing{
		{Index: 1, Direction: CrossUp, Time: day0.AddDate(0, 0, 1)},
		{Index: 5, Direction: CrossDown, Time: day0.AddDate(0, 0, 5)},
		{Index: 7, Direction: CrossUp, Time: day0.AddDate(0, 0, 7)},
	}

	c, ok := MostRecentCrossing(crossings, last, 3)
	require.True(t, ok)
	assert.Equal(t, 7, c.Index)

	_, ok = MostRecentCrossing(crossings, last, 2)
	assert.False(t, ok)

	c, ok = MostRecentCrossing(crossings[:2], last, 5)
	require.True(t, ok)
	assert.Equal(t, 5, c.Index)

	_, ok = MostRecentCrossing(nil, last, 30)
	assert.False(t, ok)
}

func TestClassifyBreakoutCandidate(t *testing.T) {
	closes := append(constant(19, 10), 11)
	volumes := append(constant(19, 100), 300)

	t.Run("qualifies on volume spike above vwap", func(t *testing.T) {
		s := makeSeries(closes, volumes)
		points, err := ComputeVWAP(s, 0, PriceClose)
		require.NoError(t, err)

		b, err := ClassifyBreakoutCandidate(s, Values(points), 20, DefaultBreakoutPolicy())
		require.NoError(t, err)
		assert.InDelta(t, 110.0, b.AvgVolume, equalityThreshold)
		assert.InDelta(t, 300.0/110.0, b.VolumeIncrease, equalityThreshold)
		assert.InDelta(t, 11/(22300.0/2200.0), b.PriceToReferenceRatio, equalityThreshold)
		assert.True(t, b.Qualifies)
	})

	t.Run("flat volume does not qualify", func(t *testing.T) {
		s := makeSeries(closes, constant(20, 100))
		points, err := ComputeVWAP(s, 0, PriceClose)
		require.NoError(t, err)

		b, err := ClassifyBreakoutCandidate(s, Values(points), 5, DefaultBreakoutPolicy())
		require.NoError(t, err)
		assert.False(t, b.Qualifies)
	})

	t.Run("slack band below the reference", func(t *testing.T) {
		s := makeSeries([]float64{10, 10, 9.85}, []float64{100, 100, 400})
		b, err := ClassifyBreakoutCandidate(s, constant(3, 10), 3, DefaultBreakoutPolicy())
		require.NoError(t, err)
		assert.True(t, b.Qualifies)

		s = makeSeries([]float64{10, 10, 9.7}, []float64{100, 100, 400})
		b, err = ClassifyBreakoutCandidate(s, constant(3, 10), 3, DefaultBreakoutPolicy())
		require.NoError(t, err)
		assert.False(t, b.Qualifies)
	})

	t.Run("window longer than history", func(t *testing.T) {
		s := makeSeries(closes, volumes)
		_, err := ClassifyBreakoutCandidate(s, constant(20, 10), 21, DefaultBreakoutPolicy())
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("invalid window", func(t *testing.T) {
		s := makeSeries(closes, volumes)
		_, err := ClassifyBreakoutCandidate(s, constant(20, 10), 0, DefaultBreakoutPolicy())
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("zero volume window", func(t *testing.T) {
		s := makeSeries([]float64{10, 11}, []float64{0, 0})
		_, err := ClassifyBreakoutCandidate(s, constant(2, 10), 2, DefaultBreakoutPolicy())
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("undefined reference", func(t *testing.T) {
		s := makeSeries([]float64{10, 11}, []float64{10, 10})
		_, err := ClassifyBreakoutCandidate(s, []float64{10, math.NaN()}, 2, DefaultBreakoutPolicy())
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})
}

func TestComputeRSI(t *testing.T) {
	t.Run("example rsi", func(t *testing.T) {
		// example taken from https://blog.quantinsti.com/rsi-indicator/
		closes := []float64{
			283.46, 280.69, 285.48, 294.08, 293.90, 299.92, 301.15, 284.45,
			294.09, 302.77, 301.97, 306.85, 305.02, 301.06, 291.97,
			284.18, 286.48, 284.54,
		}
		rsi := ComputeRSI(closes, 14)
		require.Len(t, rsi, len(closes))
		for i := 0; i < 14; i++ {
			assert.True(t, math.IsNaN(rsi[i]), "index %d", i)
		}
		assert.InDelta(t, 55.37, rsi[14], 1e-2)
		assert.InDelta(t, 50.07, rsi[15], 1e-2)
		assert.InDelta(t, 51.55, rsi[16], 1e-2)
		assert.InDelta(t, 50.20, rsi[17], 1e-2)

		v, ok := LastDefined(rsi)
		require.True(t, ok)
		assert.Equal(t, rsi[17], v)
	})

	t.Run("too few closes", func(t *testing.T) {
		rsi := ComputeRSI([]float64{100}, 14)
		require.Len(t, rsi, 1)
		assert.True(t, math.IsNaN(rsi[0]))
		_, ok := LastDefined(rsi)
		assert.False(t, ok)
	})

	t.Run("all losers", func(t *testing.T) {
		rsi := ComputeRSI([]float64{10, 9, 5}, 2)
		assert.Equal(t, 0.0, rsi[2])
	})

	t.Run("all winners", func(t *testing.T) {
		rsi := ComputeRSI([]float64{10, 11, 15}, 2)
		assert.Equal(t, 100.0, rsi[2])
	})
}

func TestScreenReversal(t *testing.T) {
	closes := []float64{20, 19, 18, 17, 16, 15, 14, 13, 12, 17, 18}
	volumes := append(constant(9, 100), 400, 400)

	t.Run("qualifies", func(t *testing.T) {
		r, err := ScreenReversal(makeSeries(closes, volumes), DefaultReversalPolicy())
		require.NoError(t, err)
		assert.True(t, r.VWAPDecline)
		assert.True(t, r.VWAPCross)
		assert.True(t, r.HighClose)
		assert.True(t, r.BuyVolume)
		assert.True(t, r.Qualifies)
		assert.Equal(t, 800.0, r.RecentVolume)
		assert.InDelta(t, 16.4706, r.DeclinePercent, 1e-3)
	})

	t.Run("no volume surge", func(t *testing.T) {
		r, err := ScreenReversal(makeSeries(closes, constant(11, 100)), DefaultReversalPolicy())
		require.NoError(t, err)
		assert.False(t, r.BuyVolume)
		assert.False(t, r.Qualifies)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := ScreenReversal(makeSeries([]float64{10}, []float64{1}), DefaultReversalPolicy())
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestParsePriceMode(t *testing.T) {
	m, err := ParsePriceMode("")
	require.NoError(t, err)
	assert.Equal(t, PriceClose, m)

	m, err = ParsePriceMode(" Typical ")
	require.NoError(t, err)
	assert.Equal(t, PriceTypical, m)

	_, err = ParsePriceMode("vwap")
	assert.Error(t, err)
}
