// Package wl implements the client side of the core Wayland protocol.
package wl

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"waywin/internal/debug"
	"waywin/internal/ev"
	"waywin/internal/objstore"
	"waywin/wire"
)

// Client tracks the state of a connection to a Wayland display
// server. It owns the object table and the event queue through which
// all protocol messages, incoming and outgoing, pass.
//
// Messages are read from the socket by a dedicated goroutine, but
// they are not dispatched until Flush or RoundTrip is called, so all
// listener callbacks run on the goroutine that calls those methods.
type Client struct {
	done  chan struct{}
	close sync.Once
	conn  *wire.Conn
	store *objstore.Store
	queue *ev.Queue
}

// Dial connects to the display server indicated by the environment
// and returns a Client for the connection.
func Dial() (*Client, error) {
	c, err := wire.Dial()
	if err != nil {
		return nil, err
	}

	return New(c), nil
}

// New creates a Client that wraps conn. It takes over responsibility
// for closing conn.
func New(conn *wire.Conn) *Client {
	client := Client{
		done:  make(chan struct{}),
		conn:  conn,
		store: objstore.New(1),
		queue: ev.NewQueue(),
	}

	display := Display{client: &client}
	client.Add(&display)

	go client.listen()

	return &client
}

func (client *Client) listen() {
	for {
		msg, err := wire.ReadMessage(client.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}

			select {
			case <-client.done:
				return
			case client.queue.Add() <- func() error { return err }:
				continue
			}
		}

		select {
		case <-client.done:
			return
		case client.queue.Add() <- func() error { return client.dispatch(msg) }:
		}
	}
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	obj := client.store.Get(msg.Sender())
	if obj == nil {
		return wire.UnknownSenderIDError{Msg: msg}
	}

	err := obj.Dispatch(msg)
	debug.Printf("%v", msg.Debug(obj))
	return err
}

// Display returns the wl_display singleton for the connection.
func (client *Client) Display() *Display {
	return client.Get(1).(*Display)
}

// Close closes the connection. No other methods of the Client should
// be called after this one.
func (client *Client) Close() error {
	client.close.Do(func() { close(client.done) })
	client.queue.Stop()
	return client.conn.Close()
}

// Add puts obj into the object table, assigning it the next free ID
// if it doesn't already have one.
func (client *Client) Add(obj wire.Object) {
	client.store.Add(obj)
}

// Get returns the object with the given ID, or nil if there isn't
// one.
func (client *Client) Get(id uint32) wire.Object {
	return client.store.Get(id)
}

// Delete removes the object with the given ID from the object table.
func (client *Client) Delete(id uint32) {
	client.store.Delete(id)
}

// Enqueue schedules msg to be sent the next time the event queue is
// flushed.
func (client *Client) Enqueue(msg *wire.MessageBuilder) {
	client.queue.Add() <- func() error {
		debug.Printf(" -> %v", msg)
		return msg.Build(client.conn)
	}
}

// Flush processes everything that is currently in the event queue,
// sending enqueued requests and dispatching received events to their
// listeners. If the queue is empty it returns immediately.
func (client *Client) Flush() error {
	select {
	case events := <-client.queue.Get():
		return events.Flush()
	default:
		return nil
	}
}

// Drain processes everything queued so far, waiting for the queue to
// hand the batch over instead of skipping it the way Flush does when
// the handoff is not ready yet. It is meant for teardown, to push
// final requests onto the wire before Close.
func (client *Client) Drain() error {
	select {
	case <-client.done:
		return net.ErrClosed
	case events := <-client.queue.All():
		return events.Flush()
	}
}

// RoundTrip flushes the event queue repeatedly until the server
// confirms that it has processed every request sent before the call.
// It blocks until that confirmation arrives.
func (client *Client) RoundTrip() error {
	return client.RoundTripContext(context.Background())
}

// RoundTripContext is like RoundTrip, but gives up when ctx is
// canceled, returning ctx's error.
func (client *Client) RoundTripContext(ctx context.Context) error {
	get := client.queue.Get()
	done := make(chan struct{})
	client.Display().Sync().Then(func(uint32) {
		close(done)
		get = nil
	})

	var errs []error

	for {
		select {
		case <-done:
			return errors.Join(errs...)

		case <-ctx.Done():
			return ctx.Err()

		case events := <-get:
			err := events.Flush()
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
}
