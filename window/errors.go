package window

import (
	"fmt"
	"time"
)

// ConnectionError indicates that the connection to the display server
// could not be established.
type ConnectionError struct {
	Err error
}

func (err ConnectionError) Error() string {
	return fmt.Sprintf("connect to display: %v", err.Err)
}

func (err ConnectionError) Unwrap() error {
	return err.Err
}

// HandshakeTimeoutError indicates that the server did not finish the
// initial handshake within the configured timeout.
type HandshakeTimeoutError struct {
	Timeout time.Duration
}

func (err HandshakeTimeoutError) Error() string {
	return fmt.Sprintf("display handshake did not complete within %v", err.Timeout)
}

// MissingCapabilityError indicates that the server does not advertise
// a global interface the window cannot function without.
type MissingCapabilityError struct {
	Interface string
}

func (err MissingCapabilityError) Error() string {
	return fmt.Sprintf("compositor does not advertise %v", err.Interface)
}

// SurfaceError indicates a protocol error reported by the server. The
// connection is dead once one arrives.
type SurfaceError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (err SurfaceError) Error() string {
	return fmt.Sprintf("protocol error on object %v (code %v): %v", err.ObjectID, err.Code, err.Message)
}

// GraphicsInitError indicates that the rendering context could not be
// set up, including the case of a server that offers no shared-memory
// buffer support.
type GraphicsInitError struct {
	Err error
}

func (err GraphicsInitError) Error() string {
	return fmt.Sprintf("initialize graphics: %v", err.Err)
}

func (err GraphicsInitError) Unwrap() error {
	return err.Err
}
