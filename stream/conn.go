package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// DefaultBaud is the serial rate Snapmaker controllers use.
const DefaultBaud = 115200

// ErrClosed is returned from send methods after Close.
var ErrClosed = errors.New("connection closed")

// Conn is a direct serial connection to a Marlin-based controller.
// Marlin acknowledges every line with "ok", so sends run in lockstep:
// one line in flight at a time.
type Conn struct {
	rw  io.ReadWriter
	log *slog.Logger

	ackCh   chan error
	closeCh chan struct{}
	deadCh  chan struct{}
	readErr error

	closeOnce sync.Once
	wMx       sync.Mutex
}

// NewConn starts reading controller output from rw. Pass a nil logger
// to use the default.
func NewConn(rw io.ReadWriter, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.Default()
	}
	c := &Conn{
		rw:      rw,
		log:     log,
		ackCh:   make(chan error),
		closeCh: make(chan struct{}),
		deadCh:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Close aborts any in-progress sends and closes the underlying
// ReadWriter, if it implements io.Closer.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// readLoop classifies controller output. Busy keep-alives and echo
// chatter are logged and skipped; only acks and errors complete a
// send.
func (c *Conn) readLoop() {
	scan := bufio.NewScanner(c.rw)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		switch {
		case line == "":
		case line == "ok" || strings.HasPrefix(line, "ok "):
			c.deliver(nil)
		case strings.HasPrefix(line, "Error:") || strings.HasPrefix(line, "error:"):
			c.deliver(errors.New(line))
		case strings.HasPrefix(line, "echo:busy"):
			c.log.Debug("controller busy", "line", line)
		default:
			c.log.Debug("controller", "line", line)
		}
	}
	c.readErr = scan.Err()
	if c.readErr == nil {
		c.readErr = io.EOF
	}
	close(c.deadCh)
}

func (c *Conn) deliver(err error) {
	select {
	case c.ackCh <- err:
	case <-c.closeCh:
	}
}

// SendLine writes one line and blocks until the controller
// acknowledges it.
func (c *Conn) SendLine(ctx context.Context, line string) error {
	c.wMx.Lock()
	defer c.wMx.Unlock()

	select {
	case <-c.closeCh:
		return ErrClosed
	default:
	}

	if _, err := io.WriteString(c.rw, line+"\n"); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closeCh:
		return ErrClosed
	case <-c.deadCh:
		return c.readErr
	case err := <-c.ackCh:
		return err
	}
}

// SendProgram streams a program line by line, skipping blanks and
// comment lines. progress, when set, is called after each
// acknowledged line. It returns the number of lines executed.
func (c *Conn) SendProgram(ctx context.Context, r io.Reader, progress func(line string, n int)) (int, error) {
	scan := bufio.NewScanner(r)
	var n int
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if err := c.SendLine(ctx, line); err != nil {
			return n, err
		}
		n++
		if progress != nil {
			progress(line, n)
		}
	}
	return n, scan.Err()
}
