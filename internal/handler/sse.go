package handler

import (
	"bytes"
	"io"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/haatos/simple-qa/internal/service"
)

const sseKeepAliveComment = "keep-alive"

// sseEvent is one server-sent event frame. A frame with neither data nor a
// comment is never written.
type sseEvent struct {
	id      string
	event   string
	data    []byte
	comment string
}

func notificationEvent(msg *message.Message) sseEvent {
	return sseEvent{
		id:    msg.UUID,
		event: service.RealtimeNewNotification,
		data:  msg.Payload,
	}
}

func keepAliveEvent() sseEvent {
	return sseEvent{comment: sseKeepAliveComment}
}

// writeTo writes the frame in a single call so a client never sees half of
// it. Multi-line data is split into one data field per line.
func (ev sseEvent) writeTo(w io.Writer) error {
	if len(ev.data) == 0 && ev.comment == "" {
		return nil
	}

	var buf bytes.Buffer
	if len(ev.data) > 0 {
		writeField(&buf, "id", []byte(ev.id))
		if ev.event != "" {
			writeField(&buf, "event", []byte(ev.event))
		}
		for line := range bytes.SplitSeq(ev.data, []byte("\n")) {
			writeField(&buf, "data", line)
		}
	}
	if ev.comment != "" {
		writeField(&buf, "", []byte(ev.comment))
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

func writeField(buf *bytes.Buffer, name string, value []byte) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.Write(value)
	buf.WriteByte('\n')
}
