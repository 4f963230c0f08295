// Package wltest implements a scripted in-process display server for
// testing clients against, connected over a socketpair.
package wltest

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"

	"waywin/internal/bin"
	"waywin/wire"
)

// Global is a capability the server advertises on its registry.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Request is a decoded client request.
type Request struct {
	Object    uint32
	Interface string
	Method    string
	Args      []any
}

// Server is a fake compositor. It reads client requests on a
// background goroutine, answers wl_display.sync automatically, and
// records everything else for the test to inspect. Events are sent by
// calling its methods.
type Server struct {
	tb   testing.TB
	conn *wire.Conn

	mu       sync.Mutex
	objects  map[uint32]string
	registry uint32
	globals  []Global
	requests []Request
	serial   uint32
	closed   bool
}

// New starts a server advertising the given globals and returns it
// along with the client end of the connection.
func New(tb testing.TB, globals ...Global) (*Server, *wire.Conn) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		tb.Fatalf("socketpair: %v", err)
	}

	server := Server{
		tb:      tb,
		conn:    fileConn(tb, fds[0]),
		objects: map[uint32]string{1: "wl_display"},
		globals: globals,
	}
	client := fileConn(tb, fds[1])

	tb.Cleanup(func() { server.Close() })
	go server.loop()

	return &server, client
}

func fileConn(tb testing.TB, fd int) *wire.Conn {
	file := os.NewFile(uintptr(fd), "socketpair")
	defer file.Close()

	c, err := net.FileConn(file)
	if err != nil {
		tb.Fatalf("wrap socketpair fd: %v", err)
	}
	return wire.NewConn(c.(*net.UnixConn))
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.conn.Close()
	}
}

func (s *Server) loop() {
	for {
		msg, err := wire.ReadMessage(s.conn)
		if err != nil {
			return
		}
		s.handle(msg)
	}
}

// reqSig describes a request's name and argument layout. Argument
// codes: u uint, i int, s string, o object ID, f file descriptor, and
// n for a new object ID of the named interface.
type reqSig struct {
	method string
	args   string
	newID  string
}

var requestSigs = map[string]map[uint16]reqSig{
	"wl_display": {
		0: {method: "sync", args: "n", newID: "wl_callback"},
		1: {method: "get_registry", args: "n", newID: "wl_registry"},
	},
	"wl_registry": {
		0: {method: "bind"},
	},
	"wl_compositor": {
		0: {method: "create_surface", args: "n", newID: "wl_surface"},
		1: {method: "create_region", args: "n", newID: "wl_region"},
	},
	"wl_region": {
		0: {method: "destroy"},
		1: {method: "add", args: "iiii"},
		2: {method: "subtract", args: "iiii"},
	},
	"wl_surface": {
		0: {method: "destroy"},
		1: {method: "attach", args: "oii"},
		2: {method: "damage", args: "iiii"},
		3: {method: "frame", args: "n", newID: "wl_callback"},
		4: {method: "set_opaque_region", args: "o"},
		6: {method: "commit"},
	},
	"wl_shm": {
		0: {method: "create_pool", args: "nfi", newID: "wl_shm_pool"},
	},
	"wl_shm_pool": {
		0: {method: "create_buffer", args: "niiiiu", newID: "wl_buffer"},
		1: {method: "destroy"},
		2: {method: "resize", args: "i"},
	},
	"wl_buffer": {
		0: {method: "destroy"},
	},
	"wl_seat": {
		0: {method: "get_pointer", args: "n", newID: "wl_pointer"},
		1: {method: "get_keyboard", args: "n", newID: "wl_keyboard"},
		2: {method: "get_touch", args: "n", newID: "wl_touch"},
		3: {method: "release"},
	},
	"wl_keyboard": {
		0: {method: "release"},
	},
	"xdg_wm_base": {
		0: {method: "destroy"},
		1: {method: "create_positioner", args: "n", newID: "xdg_positioner"},
		2: {method: "get_xdg_surface", args: "no", newID: "xdg_surface"},
		3: {method: "pong", args: "u"},
	},
	"xdg_surface": {
		0: {method: "destroy"},
		1: {method: "get_toplevel", args: "n", newID: "xdg_toplevel"},
		4: {method: "ack_configure", args: "u"},
	},
	"xdg_toplevel": {
		0:  {method: "destroy"},
		2:  {method: "set_title", args: "s"},
		3:  {method: "set_app_id", args: "s"},
		13: {method: "set_minimized"},
	},
	"zxdg_decoration_manager_v1": {
		0: {method: "destroy"},
		1: {method: "get_toplevel_decoration", args: "no", newID: "zxdg_toplevel_decoration_v1"},
	},
	"zxdg_toplevel_decoration_v1": {
		0: {method: "destroy"},
		1: {method: "set_mode", args: "u"},
		2: {method: "unset_mode"},
	},
}

func (s *Server) handle(msg *wire.MessageBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inter := s.objects[msg.Sender()]
	sig, ok := requestSigs[inter][msg.Op()]
	if !ok {
		s.tb.Errorf("unexpected request: object %v (%v), opcode %v", msg.Sender(), inter, msg.Op())
		return
	}

	req := Request{
		Object:    msg.Sender(),
		Interface: inter,
		Method:    sig.method,
	}

	if (inter == "wl_registry") && (sig.method == "bind") {
		name := msg.ReadUint()
		id := msg.ReadNewID()
		req.Args = []any{name, id.Interface, id.Version, id.ID}
		s.objects[id.ID] = id.Interface

		// wl_shm announces its formats immediately after the bind.
		if id.Interface == "wl_shm" {
			for _, format := range []uint32{0, 1} {
				s.send(id.ID, 0, func(msg *wire.MessageBuilder) { msg.WriteUint(format) })
			}
		}
	} else {
		for _, code := range sig.args {
			switch code {
			case 'u':
				req.Args = append(req.Args, msg.ReadUint())
			case 'i':
				req.Args = append(req.Args, msg.ReadInt())
			case 's':
				req.Args = append(req.Args, msg.ReadString())
			case 'o':
				req.Args = append(req.Args, msg.ReadUint())
			case 'f':
				file := msg.ReadFile()
				req.Args = append(req.Args, file)
				if file != nil {
					file.Close()
				}
			case 'n':
				id := msg.ReadUint()
				req.Args = append(req.Args, id)
				s.objects[id] = sig.newID
			}
		}
	}
	if err := msg.Err(); err != nil {
		s.tb.Errorf("decode %v.%v: %v", inter, sig.method, err)
		return
	}

	s.requests = append(s.requests, req)

	switch {
	case (inter == "wl_display") && (sig.method == "sync"):
		id := req.Args[0].(uint32)
		s.send(id, 0, func(msg *wire.MessageBuilder) { msg.WriteUint(s.nextSerial()) })
		s.send(1, 1, func(msg *wire.MessageBuilder) { msg.WriteUint(id) })
		delete(s.objects, id)

	case (inter == "wl_display") && (sig.method == "get_registry"):
		s.registry = req.Args[0].(uint32)
		for _, g := range s.globals {
			s.sendGlobal(g)
		}
	}
}

// stub stands in as the sender of a server-built message.
type stub uint32

func (s stub) ID() uint32                         { return uint32(s) }
func (s stub) SetID(uint32)                       {}
func (s stub) Delete()                            {}
func (s stub) Dispatch(*wire.MessageBuffer) error { return nil }
func (s stub) MethodName(uint16) string           { return "" }
func (s stub) String() string                     { return fmt.Sprintf("object@%v", uint32(s)) }

// send builds and sends an event. The caller must hold s.mu.
func (s *Server) send(object uint32, op uint16, build func(*wire.MessageBuilder)) {
	msg := wire.NewMessage(stub(object), op)
	if build != nil {
		build(msg)
	}
	if err := msg.Build(s.conn); err != nil && !s.closed {
		// The client closing its end mid-teardown is expected; only
		// other write failures are test failures.
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, net.ErrClosed) {
			return
		}
		s.tb.Errorf("send event to object %v: %v", object, err)
	}
}

func (s *Server) nextSerial() uint32 {
	s.serial++
	return s.serial
}

func (s *Server) sendGlobal(g Global) {
	s.send(s.registry, 0, func(msg *wire.MessageBuilder) {
		msg.WriteUint(g.Name)
		msg.WriteString(g.Interface)
		msg.WriteUint(g.Version)
	})
}

// AddGlobal advertises a new global after startup.
func (s *Server) AddGlobal(g Global) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals = append(s.globals, g)
	if s.registry != 0 {
		s.sendGlobal(g)
	}
}

// ObjectID returns the ID of the most recently created object with
// the given interface, or zero.
func (s *Server) ObjectID(inter string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objectIDLocked(inter)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts received requests by interface and method.
func (s *Server) CountRequests(inter, method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, req := range s.requests {
		if (req.Interface == inter) && (req.Method == method) {
			n++
		}
	}
	return n
}

// SendShmFormats advertises pixel formats on the bound wl_shm.
func (s *Server) SendShmFormats(formats ...uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shm := s.objectIDLocked("wl_shm")
	for _, format := range formats {
		s.send(shm, 0, func(msg *wire.MessageBuilder) { msg.WriteUint(format) })
	}
}

// SendConfigure sends an xdg_toplevel.configure followed by the
// xdg_surface.configure that commits it, returning the serial.
func (s *Server) SendConfigure(width, height int32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	toplevel := s.objectIDLocked("xdg_toplevel")
	surface := s.objectIDLocked("xdg_surface")
	serial := s.nextSerial()

	s.send(toplevel, 0, func(msg *wire.MessageBuilder) {
		msg.WriteInt(width)
		msg.WriteInt(height)
		msg.WriteArray(nil)
	})
	s.send(surface, 0, func(msg *wire.MessageBuilder) { msg.WriteUint(serial) })

	return serial
}

// SendClose asks the toplevel to close.
func (s *Server) SendClose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.send(s.objectIDLocked("xdg_toplevel"), 1, nil)
}

// SendPing sends an xdg_wm_base.ping and returns its serial.
func (s *Server) SendPing() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	serial := s.nextSerial()
	s.send(s.objectIDLocked("xdg_wm_base"), 0, func(msg *wire.MessageBuilder) {
		msg.WriteUint(serial)
	})
	return serial
}

// SendSeatCapabilities announces the seat's device bitmask.
func (s *Server) SendSeatCapabilities(caps uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.send(s.objectIDLocked("wl_seat"), 0, func(msg *wire.MessageBuilder) {
		msg.WriteUint(caps)
	})
}

// SendKeymap delivers an xkb_v1 keymap to the bound keyboard through
// a freshly created memfd.
func (s *Server) SendKeymap(data []byte) {
	file, err := os.CreateTemp("", "wltest-keymap-")
	if err != nil {
		s.tb.Fatalf("create keymap file: %v", err)
	}
	defer file.Close()
	os.Remove(file.Name())

	if _, err := file.Write(data); err != nil {
		s.tb.Fatalf("write keymap file: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.send(s.objectIDLocked("wl_keyboard"), 0, func(msg *wire.MessageBuilder) {
		msg.WriteUint(1)
		msg.WriteFile(file)
		msg.WriteUint(uint32(len(data)))
	})
}

// SendKey sends a single key press or release with the given evdev
// scancode.
func (s *Server) SendKey(scancode uint32, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state uint32
	if pressed {
		state = 1
	}

	s.send(s.objectIDLocked("wl_keyboard"), 3, func(msg *wire.MessageBuilder) {
		msg.WriteUint(s.nextSerial())
		msg.WriteUint(0)
		msg.WriteUint(scancode)
		msg.WriteUint(state)
	})
}

// SendKeyboardEnter reports keyboard focus entering the surface with
// the given scancodes already held.
func (s *Server) SendKeyboardEnter(held ...uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]byte, 0, 4*len(held))
	for _, k := range held {
		b := bin.Bytes(k)
		keys = append(keys, b[:]...)
	}

	s.send(s.objectIDLocked("wl_keyboard"), 1, func(msg *wire.MessageBuilder) {
		msg.WriteUint(s.nextSerial())
		msg.WriteUint(s.objectIDLocked("wl_surface"))
		msg.WriteArray(keys)
	})
}

// SendKeyboardLeave reports keyboard focus leaving the surface.
func (s *Server) SendKeyboardLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.send(s.objectIDLocked("wl_keyboard"), 2, func(msg *wire.MessageBuilder) {
		msg.WriteUint(s.nextSerial())
		msg.WriteUint(s.objectIDLocked("wl_surface"))
	})
}

// SendModifiers announces a new modifier state.
func (s *Server) SendModifiers(depressed, latched, locked, group uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.send(s.objectIDLocked("wl_keyboard"), 4, func(msg *wire.MessageBuilder) {
		msg.WriteUint(s.nextSerial())
		msg.WriteUint(depressed)
		msg.WriteUint(latched)
		msg.WriteUint(locked)
		msg.WriteUint(group)
	})
}

// SendRepeatInfo announces key repeat parameters.
func (s *Server) SendRepeatInfo(rate, delay int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.send(s.objectIDLocked("wl_keyboard"), 5, func(msg *wire.MessageBuilder) {
		msg.WriteInt(rate)
		msg.WriteInt(delay)
	})
}

// SendDisplayError reports a fatal protocol error.
func (s *Server) SendDisplayError(object, code uint32, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.send(1, 0, func(msg *wire.MessageBuilder) {
		msg.WriteUint(object)
		msg.WriteUint(code)
		msg.WriteString(message)
	})
}

func (s *Server) objectIDLocked(inter string) uint32 {
	var id uint32
	for i, in := range s.objects {
		if (in == inter) && (i > id) {
			id = i
		}
	}
	return id
}
