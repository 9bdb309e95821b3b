// Package runtime wires the transport-agnostic matching core to its three
// ZeroMQ channels. Keeping this separate from internal/matching lets the
// algorithm be tested without a socket in the loop, matching the
// teacher's habit of splitting *_core.go business logic from its handler/
// transport glue (e.g. internal/orders/service_core.go vs handler.go).
package runtime

import (
	"context"
	"time"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/envelope"
	"github.com/openlob/matchcore/internal/matching"
)

// sendTimeout bounds how long a snapshot publish attempt may block before
// being dropped, per SPEC_FULL.md §4.1: "if the subscriber socket would
// block, the attempt is dropped."
const sendTimeout = 50 * time.Millisecond

// RunMatchLoop is the engine's single cooperative loop: receive on
// orderSock, match, emit on eventSock, periodically publish on snapSock.
// It returns nil on clean shutdown (ctx canceled) and a non-nil error only
// for a fatal invariant violation, per SPEC_FULL.md §7.
func RunMatchLoop(ctx context.Context, logger *zap.Logger, engine *matching.Engine, orderSock, eventSock, snapSock zmq4.Socket) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := orderSock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("orders-in recv failed, continuing", zap.Error(err))
			continue
		}

		env, err := envelope.Decode(msg.Bytes())
		if err != nil {
			logger.Warn("dropping malformed envelope", zap.Error(err))
			engine.RecordMalformed()
			continue
		}

		events, ok, err := applyEnvelope(engine, env)
		if err != nil {
			logger.Error("invariant violation, exiting for restart", zap.Error(err))
			return err
		}
		if !ok {
			logger.Warn("dropping invalid order or envelope with unexpected type on orders-in channel", zap.String("type", string(env.Type)))
			engine.RecordMalformed()
			continue
		}

		for _, ev := range events {
			if sendErr := emit(eventSock, ev); sendErr != nil {
				logger.Error("events-out send failed", zap.Error(sendErr))
			}
		}

		if invErr := engine.CheckInvariant(); invErr != nil {
			logger.Error("invariant violation, exiting for restart", zap.Error(invErr))
			return invErr
		}

		maybePublishSnapshot(ctx, logger, engine, snapSock)
	}
}

func applyEnvelope(engine *matching.Engine, env *envelope.Envelope) ([]matching.OutEvent, bool, error) {
	switch env.Type {
	case envelope.TypeOrder:
		if err := env.Order.Validate(); err != nil {
			return nil, false, nil
		}
		events, err := engine.ProcessOrder(env.Order)
		return events, true, err
	case envelope.TypeCancel:
		ev, ok := engine.ProcessCancel(env.CancelOrderID, env.CancelSide)
		if !ok {
			return nil, true, nil
		}
		return []matching.OutEvent{*ev}, true, nil
	default:
		return nil, false, nil
	}
}

func emit(eventSock zmq4.Socket, ev matching.OutEvent) error {
	var line []byte
	var err error
	switch {
	case ev.Trade != nil:
		line, err = envelope.EncodeTrade(ev.Trade.Buy, ev.Trade.Sell, ev.Trade.Trade)
	case ev.Unmatched != nil:
		line, err = envelope.EncodeOrder(envelope.TypeUnmatchedOrder, ev.Unmatched, false)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return eventSock.Send(zmq4.NewMsg(line))
}

func maybePublishSnapshot(ctx context.Context, logger *zap.Logger, engine *matching.Engine, snapSock zmq4.Socket) {
	now := time.Now()
	if !engine.ShouldPublish(now) {
		return
	}
	start := time.Now()
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- snapSock.Send(zmq4.NewMsg(engine.Snapshot())) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Warn("snapshot publish failed, dropping", zap.Error(err))
		}
	case <-sendCtx.Done():
		logger.Warn("snapshot publish would block, dropping")
	}

	engine.MarkPublished(now)
	engine.RecordSnapshotLatency(time.Since(start))
}
