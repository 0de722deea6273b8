package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// batchSize is how many lines go into one sendjson frame.
const batchSize = 100

var lastID int64

func nextID() string {
	id := atomic.AddInt64(&lastID, 1)
	return "cmd_" + strconv.FormatInt(id, 36)
}

// SPJS is a client for a Serial Port JSON Server relay. It keeps the
// websocket alive across drops; senders queue frames and block until
// they are on the wire.
type SPJS struct {
	url string
	log *slog.Logger

	outgoing chan message
	incoming chan any
}

type message struct {
	done    chan struct{}
	payload []byte
}

// Wire structures, as the relay defines them.

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}

type CmdStatus struct {
	Cmd        string
	QueueCount int      `json:"QCnt"`
	Data       []string `json:"D"`
	ID         string   `json:"Id"`
}

type ErrorMessage struct {
	Error string
}

type SerialPortList struct {
	SerialPorts []SerialPort
}

type SerialPort struct {
	Name            string
	Friendly        string
	IsOpen          bool
	Baud            int
	BufferAlgorithm string
	Ver             float64
}

type JSON struct {
	Port string `json:"P"`
	Data []Data
}

type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

// NewSPJS connects to the relay at url, reconnecting as needed. Pass
// a nil logger to use the default.
func NewSPJS(url string, log *slog.Logger) *SPJS {
	if log == nil {
		log = slog.Default()
	}
	sp := &SPJS{
		url:      url,
		log:      log,
		outgoing: make(chan message, 1000),
		incoming: make(chan any, 1000),
	}
	go sp.loop()
	return sp
}

// Messages is the stream of decoded relay messages.
func (sp *SPJS) Messages() <-chan any {
	return sp.incoming
}

// classify decodes a relay message by which marker field is present.
func classify(data []byte, msg map[string]json.RawMessage) (val any, err error) {
	check := func(fieldName string, v any) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if check("Type", &CmdStatus{}) {
		return
	}
	if check("Cmd", &CmdStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}
	return nil, errors.New("unknown message: " + string(data))
}

func (sp *SPJS) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			sp.log.Error("spjs read", "error", err)
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// command echo, not JSON
			continue
		}
		var msg map[string]json.RawMessage
		if err = json.Unmarshal(data, &msg); err != nil {
			sp.log.Error("spjs decode", "error", err)
			continue
		}
		val, err := classify(data, msg)
		if err != nil {
			sp.log.Debug("spjs message dropped", "error", err)
			continue
		}
		sp.incoming <- val
	}
}

func (sp *SPJS) loop() {
	var nextUp message

reconnect:
	for {
		sp.log.Info("connecting to spjs", "url", sp.url)
		ws, _, err := websocket.DefaultDialer.Dial(sp.url, nil)
		if err != nil {
			sp.log.Error("spjs connect", "error", err)
			time.Sleep(3 * time.Second)
			continue
		}
		sp.log.Info("connected")
		ch := make(chan struct{})
		go sp.readLoop(ws, ch)
		go sp.WriteString("list")

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					sp.log.Error("spjs send", "error", err)
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-ch:
				continue reconnect
			case nextUp = <-sp.outgoing:
			}
		}
	}
}

// SendJSON queues a sendjson frame and blocks until it is written.
func (sp *SPJS) SendJSON(ctx context.Context, v JSON) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ch := make(chan struct{})
	select {
	case sp.outgoing <- message{done: ch, payload: append([]byte("sendjson "), data...)}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteString queues a raw relay command and blocks until it is
// written.
func (sp *SPJS) WriteString(data string) {
	ch := make(chan struct{})
	sp.outgoing <- message{done: ch, payload: []byte(data)}
	<-ch
}

// Port addresses one serial device behind the relay.
type Port struct {
	sp   *SPJS
	name string
	baud int
}

func NewPort(sp *SPJS, name string, baud int) *Port {
	if baud == 0 {
		baud = DefaultBaud
	}
	return &Port{sp: sp, name: name, baud: baud}
}

// Open asks the relay to open the port with the Marlin buffer
// algorithm.
func (p *Port) Open() {
	p.sp.WriteString(fmt.Sprintf("open %s marlin %d", p.name, p.baud))
}

// frames splits program lines into sendjson frames of at most
// batchSize commands, each tagged with a fresh id.
func frames(port string, lines []string) []JSON {
	var out []JSON
	for start := 0; start < len(lines); start += batchSize {
		end := start + batchSize
		if end > len(lines) {
			end = len(lines)
		}
		j := JSON{Port: port}
		for _, line := range lines[start:end] {
			j.Data = append(j.Data, Data{Data: line + "\n", ID: nextID()})
		}
		out = append(out, j)
	}
	return out
}

// SendProgram relays a program one frame at a time, waiting for the
// relay to report each frame complete. progress, when set, is called
// with the running line count after each frame.
func (p *Port) SendProgram(ctx context.Context, r io.Reader, progress func(sent, total int)) (int, error) {
	var lines []string
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scan.Err(); err != nil {
		return 0, err
	}

	var sent int
	for _, frame := range frames(p.name, lines) {
		if err := p.sp.SendJSON(ctx, frame); err != nil {
			return sent, err
		}
		last := frame.Data[len(frame.Data)-1].ID
		if err := p.awaitComplete(ctx, last); err != nil {
			return sent, err
		}
		sent += len(frame.Data)
		if progress != nil {
			progress(sent, len(lines))
		}
	}
	return sent, nil
}

func (p *Port) awaitComplete(ctx context.Context, id string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw := <-p.sp.incoming:
			switch msg := raw.(type) {
			case *ErrorMessage:
				return errors.New(msg.Error)
			case *CmdStatus:
				switch msg.Cmd {
				case "WipedQueue":
					return errors.New("relay wiped queue")
				case "Error":
					return fmt.Errorf("relay rejected %s", msg.ID)
				case "Complete":
					if msg.ID == id {
						return nil
					}
				}
			}
		}
	}
}
