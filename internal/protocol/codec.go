package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Encode serializes a message as a single newline-terminated JSON line.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["type"] = m.MessageType()

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	return append(out, '\n'), nil
}

// Decoder splits a byte stream into wire messages. Partial lines are
// buffered across Feed calls; lines that fail to parse are logged and
// skipped so a garbled message never kills the stream.
type Decoder struct {
	buf []byte
}

// Feed appends raw bytes from the stream and returns every complete
// message they yield. The trailing partial line, if any, is retained.
func (d *Decoder) Feed(p []byte) []Message {
	d.buf = append(d.buf, p...)

	var msgs []Message
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return msgs
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		m, err := decodeLine(line)
		if err != nil {
			slog.Warn("dropping unparseable message", "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
}

// Pending reports how many buffered bytes are waiting for a newline.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func decodeLine(line []byte) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, fmt.Errorf("malformed json: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("message without type field")
	}

	var (
		m   Message
		err error
	)
	switch head.Type {
	case TypeHello:
		var v Hello
		err = json.Unmarshal(line, &v)
		m = v
	case TypeConnected:
		m = Connected{}
	case TypePing:
		m = Ping{}
	case TypePong:
		m = Pong{}
	case TypeModeSwitch:
		var v ModeSwitch
		err = json.Unmarshal(line, &v)
		m = v
	case TypeMouseMove:
		var v MouseMove
		err = json.Unmarshal(line, &v)
		m = v
	case TypeMouseButton:
		var v MouseButton
		err = json.Unmarshal(line, &v)
		m = v
	case TypeMouseScroll:
		var v MouseScroll
		err = json.Unmarshal(line, &v)
		m = v
	case TypeKey:
		var v Key
		err = json.Unmarshal(line, &v)
		m = v
	case TypeScreenInfo:
		var v ScreenInfo
		err = json.Unmarshal(line, &v)
		m = v
	case TypeError:
		var v Error
		err = json.Unmarshal(line, &v)
		m = v
	default:
		m = Unknown{Type: head.Type}
	}
	if err != nil {
		return nil, fmt.Errorf("malformed %s: %w", head.Type, err)
	}
	return m, nil
}
