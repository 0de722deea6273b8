package stream

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data string) any {
	t.Helper()
	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(data), &msg))
	val, err := classify([]byte(data), msg)
	require.NoError(t, err)
	return val
}

func TestClassify(t *testing.T) {
	val := decode(t, `{"Error":"no such port"}`)
	require.IsType(t, &ErrorMessage{}, val)
	assert.Equal(t, "no such port", val.(*ErrorMessage).Error)

	val = decode(t, `{"SerialPorts":[{"Name":"/dev/ttyUSB0","IsOpen":true,"Baud":115200}]}`)
	require.IsType(t, &SerialPortList{}, val)
	list := val.(*SerialPortList)
	require.Len(t, list.SerialPorts, 1)
	assert.Equal(t, "/dev/ttyUSB0", list.SerialPorts[0].Name)
	assert.True(t, list.SerialPorts[0].IsOpen)

	val = decode(t, `{"Cmd":"Complete","Id":"cmd_5","P":"/dev/ttyUSB0"}`)
	require.IsType(t, &CmdStatus{}, val)
	assert.Equal(t, "Complete", val.(*CmdStatus).Cmd)
	assert.Equal(t, "cmd_5", val.(*CmdStatus).ID)

	val = decode(t, `{"P":"/dev/ttyUSB0","D":"ok\n"}`)
	require.IsType(t, &DataFrame{}, val)
	assert.Equal(t, "ok\n", val.(*DataFrame).Data)
}

func TestClassify_Unknown(t *testing.T) {
	data := []byte(`{"Version":"1.96"}`)
	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &msg))

	_, err := classify(data, msg)
	assert.Error(t, err)
}

func TestFrames(t *testing.T) {
	lines := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		lines = append(lines, "G1 X1 F300")
	}

	out := frames("/dev/ttyUSB0", lines)
	require.Len(t, out, 3)
	assert.Len(t, out[0].Data, 100)
	assert.Len(t, out[1].Data, 100)
	assert.Len(t, out[2].Data, 50)

	ids := map[string]bool{}
	for _, frame := range out {
		assert.Equal(t, "/dev/ttyUSB0", frame.Port)
		for _, d := range frame.Data {
			assert.True(t, strings.HasSuffix(d.Data, "\n"))
			assert.False(t, ids[d.ID], "duplicate id %s", d.ID)
			ids[d.ID] = true
		}
	}
}

// fakeSPJS builds a client whose relay side is driven by the test.
func fakeSPJS() (*SPJS, chan message) {
	sp := &SPJS{
		outgoing: make(chan message, 10),
		incoming: make(chan any, 10),
	}
	return sp, sp.outgoing
}

func TestPort_SendProgram(t *testing.T) {
	sp, out := fakeSPJS()
	port := NewPort(sp, "/dev/ttyUSB0", 0)

	// relay side: ack every frame as written, then report the last
	// command of the frame complete
	go func() {
		for m := range out {
			payload := strings.TrimPrefix(string(m.payload), "sendjson ")
			var frame JSON
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				close(m.done)
				continue
			}
			close(m.done)
			sp.incoming <- &CmdStatus{Cmd: "Complete", ID: frame.Data[len(frame.Data)-1].ID}
		}
	}()

	program := ";Header Start\nG90\nG21\n\nG0 X10.000 F3600.000\n"
	var calls []int
	n, err := port.SendProgram(context.Background(), strings.NewReader(program), func(sent, total int) {
		calls = append(calls, sent)
		assert.Equal(t, 3, total)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{3}, calls)
}

func TestPort_SendProgramWipedQueue(t *testing.T) {
	sp, out := fakeSPJS()
	port := NewPort(sp, "/dev/ttyUSB0", 0)

	go func() {
		m := <-out
		close(m.done)
		sp.incoming <- &CmdStatus{Cmd: "WipedQueue"}
	}()

	_, err := port.SendProgram(context.Background(), strings.NewReader("G90\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wiped")
}

func TestPort_SendProgramCancel(t *testing.T) {
	sp, out := fakeSPJS()
	port := NewPort(sp, "/dev/ttyUSB0", 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		m := <-out
		close(m.done)
		cancel() // relay never answers
	}()

	_, err := port.SendProgram(ctx, strings.NewReader("G90\n"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
