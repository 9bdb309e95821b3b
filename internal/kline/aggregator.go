// Package kline derives OHLC candles and a rolling SMA from the engine's
// book snapshots, per SPEC_FULL.md §4.7. It resolves the producer's
// previously undefined "kline" CLI role: a read-only diagnostic consumer
// that never feeds back into the engine. It subscribes to the same
// snapshots-out PUB feed as the market-data fanout rather than the
// events-out PUSH/PULL channel, so it never steals a round-robin share
// of the trade events the persistence consumer depends on.
package kline

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/markcheno/go-talib"
	"go.uber.org/zap"
)

// candleInterval is the bucket width for OHLC aggregation, grounded on
// the 1-minute buckets in the teacher's
// internal/trading/market_data/timeframe package.
const candleInterval = time.Minute

// smaPeriod is how many closed candles the rolling SMA averages over.
const smaPeriod = 5

// Candle is one OHLC bucket derived from book mid-price samples,
// adapted from the teacher's internal/marketdata/candle.go shape.
type Candle struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Samples   int
	Timestamp time.Time
}

// SnapshotReceiver abstracts the SUB socket dialed to the engine's
// snapshots-out channel.
type SnapshotReceiver interface {
	Recv(ctx context.Context) ([]byte, error)
}

// Aggregator folds mid-price ticks into rolling candles and periodically
// computes an SMA over the closed ones.
type Aggregator struct {
	logger  *zap.Logger
	current *Candle
	closed  []float64 // closing mid-prices of completed candles, oldest first
}

func New(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Run ingests snapshots from recv until ctx is canceled, folding each
// one's mid-price into the current candle and rolling over on interval
// boundaries.
func (a *Aggregator) Run(ctx context.Context, recv SnapshotReceiver) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		payload, err := recv.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Warn("snapshot recv failed, continuing", zap.Error(err))
			continue
		}

		mid, ok := midPrice(payload)
		if !ok {
			continue
		}
		a.observe(mid, time.Now().UTC())
	}
}

func (a *Aggregator) observe(mid float64, at time.Time) {
	bucket := at.Truncate(candleInterval)

	if a.current == nil {
		a.current = &Candle{Open: mid, High: mid, Low: mid, Close: mid, Samples: 1, Timestamp: bucket}
		return
	}

	if bucket.After(a.current.Timestamp) {
		a.closeCandle()
		a.current = &Candle{Open: mid, High: mid, Low: mid, Close: mid, Samples: 1, Timestamp: bucket}
		return
	}

	if mid > a.current.High {
		a.current.High = mid
	}
	if mid < a.current.Low {
		a.current.Low = mid
	}
	a.current.Close = mid
	a.current.Samples++
}

func (a *Aggregator) closeCandle() {
	if a.current == nil {
		return
	}
	a.closed = append(a.closed, a.current.Close)
	a.logger.Info("kline candle closed",
		zap.Time("timestamp", a.current.Timestamp),
		zap.Float64("open", a.current.Open),
		zap.Float64("high", a.current.High),
		zap.Float64("low", a.current.Low),
		zap.Float64("close", a.current.Close),
		zap.Int("samples", a.current.Samples),
	)

	if len(a.closed) >= smaPeriod {
		window := a.closed[len(a.closed)-smaPeriod:]
		sma := talib.Sma(window, smaPeriod)
		a.logger.Info("kline sma", zap.Float64("sma", sma[len(sma)-1]), zap.Int("period", smaPeriod))
	}
}

// midPrice extracts the best bid and best ask from a rendered snapshot
// and returns their arithmetic mean. The snapshot format is the same
// fixed-width table internal/matching.FormatSnapshot produces; mid
// derivation here is deliberately independent of that package so the
// kline role can run against a snapshot captured from the wire alone.
func midPrice(snapshot []byte) (float64, bool) {
	var bestBid, bestAsk float64
	var haveBid, haveAsk bool

	scanner := bufio.NewScanner(bytes.NewReader(snapshot))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		side, priceStr := fields[0], fields[1]
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			continue
		}
		switch side {
		case "BUY":
			if !haveBid || price > bestBid {
				bestBid, haveBid = price, true
			}
		case "SELL":
			if !haveAsk || price < bestAsk {
				bestAsk, haveAsk = price, true
			}
		}
	}

	if !haveBid || !haveAsk {
		return 0, false
	}
	return (bestBid + bestAsk) / 2, true
}
