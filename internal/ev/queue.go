// Package ev implements the event queue that bridges the socket
// reading goroutine and the single-threaded dispatch point.
package ev

import (
	"errors"
	"sync"
)

// Queue is an unbounded concurrent queue. Any number of goroutines
// may queue events through Add; batches come out of Get in order.
type Queue struct {
	done  chan struct{}
	close sync.Once

	add chan func() error
	get chan *Events
	all chan *Events
}

func NewQueue() *Queue {
	q := Queue{
		done: make(chan struct{}),
		add:  make(chan func() error),
		get:  make(chan *Events),
		all:  make(chan *Events),
	}
	go q.run()

	return &q
}

// Stop shuts the queue down, dropping any events still in it.
func (q *Queue) Stop() {
	q.close.Do(func() {
		close(q.done)
	})
}

// Add returns the channel that events are queued through.
func (q *Queue) Add() chan<- func() error {
	return q.add
}

// Get returns the channel that batches are handed out on. It yields
// only once at least one event has been queued since the previous
// batch.
func (q *Queue) Get() <-chan *Events {
	return q.get
}

// All is like Get but always yields, empty batch or not. It exists
// for shutdown: a receive from it collects events that Get has not
// published yet without ever blocking on an empty queue.
func (q *Queue) All() <-chan *Events {
	return q.all
}

func (q *Queue) run() {
	var s []func() error
	var get chan *Events

	for {
		select {
		case <-q.done:
			return

		case v := <-q.add:
			s = append(s, v)
			get = q.get

		case get <- &Events{events: s}:
			s = nil
			get = nil

		case q.all <- &Events{events: s}:
			s = nil
			get = nil
		}
	}
}

// Events represents a series of events from a Client's event queue.
type Events struct {
	events []func() error
}

// Flush processes all of the events represented by q.
func (q *Events) Flush() error {
	var errs []error
	for _, ev := range q.events {
		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	q.events = nil
	return errors.Join(errs...)
}
