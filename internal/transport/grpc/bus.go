package grpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	ErrBusFull   = errors.New("grpc bus: buffer full")
	ErrBusClosed = errors.New("grpc bus: closed")
)

// GrpcBus publishes events to a remote EventService over gRPC.
// Publish only enqueues; a background loop delivers messages in order so a
// slow receiver never delays a ledger operation.
// Used when BusProvider == "grpc" in config.
type GrpcBus struct {
	conn    *grpc.ClientConn
	queue   chan *EventRequest
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewGrpcBusFromAddr dials the remote EventService and returns a GrpcBus and a cleanup function.
func NewGrpcBusFromAddr(addr string, bufferSize int) (*GrpcBus, func(), error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	b := NewGrpcBus(conn, bufferSize)
	cleanup := func() {
		b.Close()
		_ = conn.Close()
	}
	return b, cleanup, nil
}

// NewGrpcBus starts a bus on an existing connection.
func NewGrpcBus(conn *grpc.ClientConn, bufferSize int) *GrpcBus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	b := &GrpcBus{
		conn:    conn,
		queue:   make(chan *EventRequest, bufferSize),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go b.loop()
	return b
}

// Publish enqueues an event for delivery. It fails with ErrBusFull rather
// than block when the buffer is exhausted.
func (b *GrpcBus) Publish(topic string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	select {
	case b.queue <- &EventRequest{Topic: topic, Payload: data}:
		return nil
	default:
		return ErrBusFull
	}
}

// Close stops accepting events and waits until the buffer is delivered.
func (b *GrpcBus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *GrpcBus) loop() {
	defer close(b.done)
	for req := range b.queue {
		if err := b.send(req); err != nil {
			slog.Error("grpc bus: failed to deliver event", "topic", req.Topic, "error", err)
		}
	}
}

func (b *GrpcBus) send(req *EventRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	var res EventResponse
	return b.conn.Invoke(ctx, fullMethod(eventServiceName, "Publish"), req, &res, grpc.CallContentSubtype(codecName))
}
