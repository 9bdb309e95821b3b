// Package transport wraps the three ZeroMQ channels named in
// SPEC_FULL.md §6 (PULL orders-in, PUSH events-out, PUB snapshots-out)
// using github.com/go-zeromq/zmq4, a pure-Go ZMTP implementation. None of
// the retrieval pack's example repos use a brokerless PUSH/PULL/PUB/SUB
// transport, so this dependency is sourced from the wider ecosystem per
// the design notes (DESIGN.md documents the grounding gap).
package transport

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"
)

const (
	OrdersAddr    = "tcp://*:12345"
	EventsAddr    = "tcp://*:12346"
	SnapshotsAddr = "tcp://*:12347"

	// Dial-side addresses for the same three channels, used by the
	// producer, persistence consumer, market-data fanout and kline
	// aggregator when the engine runs on the same host.
	OrdersDialAddr    = "tcp://localhost:12345"
	EventsDialAddr    = "tcp://localhost:12346"
	SnapshotsDialAddr = "tcp://localhost:12347"
)

// BindPull opens the orders-in channel: engine binds PULL, producer
// connects as PUSH.
func BindPull(ctx context.Context, addr string) (zmq4.Socket, error) {
	sock := zmq4.NewPull(ctx)
	if err := sock.Listen(addr); err != nil {
		return nil, fmt.Errorf("transport: bind PULL %s: %w", addr, err)
	}
	return sock, nil
}

// BindPush opens the events-out channel: engine binds PUSH, persistence
// connects as PULL.
func BindPush(ctx context.Context, addr string) (zmq4.Socket, error) {
	sock := zmq4.NewPush(ctx)
	if err := sock.Listen(addr); err != nil {
		return nil, fmt.Errorf("transport: bind PUSH %s: %w", addr, err)
	}
	return sock, nil
}

// BindPub opens the snapshots-out channel: engine binds PUB, subscribers
// connect as SUB with an empty topic filter.
func BindPub(ctx context.Context, addr string) (zmq4.Socket, error) {
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(addr); err != nil {
		return nil, fmt.Errorf("transport: bind PUB %s: %w", addr, err)
	}
	return sock, nil
}

// DialPush connects a PUSH socket to a bound PULL endpoint (used by the
// order producer to inject orders into the engine).
func DialPush(ctx context.Context, addr string) (zmq4.Socket, error) {
	sock := zmq4.NewPush(ctx)
	if err := sock.Dial(addr); err != nil {
		return nil, fmt.Errorf("transport: dial PUSH %s: %w", addr, err)
	}
	return sock, nil
}

// DialPull connects a PULL socket to a bound PUSH endpoint (used by the
// persistence consumer to read engine events).
func DialPull(ctx context.Context, addr string) (zmq4.Socket, error) {
	sock := zmq4.NewPull(ctx)
	if err := sock.Dial(addr); err != nil {
		return nil, fmt.Errorf("transport: dial PULL %s: %w", addr, err)
	}
	return sock, nil
}

// DialSub connects a SUB socket to a bound PUB endpoint with an empty
// topic filter, subscribing to every message (used by the market-data
// fanout and the kline aggregator).
func DialSub(ctx context.Context, addr string) (zmq4.Socket, error) {
	sock := zmq4.NewSub(ctx)
	if err := sock.Dial(addr); err != nil {
		return nil, fmt.Errorf("transport: dial SUB %s: %w", addr, err)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		return nil, fmt.Errorf("transport: subscribe SUB %s: %w", addr, err)
	}
	return sock, nil
}

// SocketReceiver adapts a zmq4.Socket to the Recv(ctx) shape consumers in
// internal/persistence and internal/kline depend on, so those packages
// can be tested against a fake without importing zmq4 directly.
type SocketReceiver struct {
	Sock zmq4.Socket
}

func (r SocketReceiver) Recv(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg, err := r.Sock.Recv()
	if err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

// SocketSender adapts a zmq4.Socket to the Send(ctx, line) shape the
// order producer depends on.
type SocketSender struct {
	Sock zmq4.Socket
}

func (s SocketSender) Send(ctx context.Context, line []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Sock.Send(zmq4.NewMsg(line))
}
