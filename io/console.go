package io

import (
	"io"
	"strconv"
)

// Console writes each value sent to it as a decimal line of text.
type Console struct {
	Output io.Writer

	Sent int // Values sent since the last rewind.
}

var _ Channel = (*Console)(nil)

// Rewind is not possible on a console; it only resets the counter.
func (con *Console) Rewind() {
	con.Sent = 0
}

// Send writes value, in decimal, followed by a newline.
func (con *Console) Send(value uint8) (err error) {
	if con.Output == nil {
		err = ErrChannelClosed
		return
	}

	line := strconv.AppendUint(nil, uint64(value), 10)
	line = append(line, '\n')

	_, err = con.Output.Write(line)
	if err != nil {
		return
	}

	con.Sent++

	return
}
