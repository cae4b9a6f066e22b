// Package io provides the output channels of the LS-8 emulator.
package io

// Channel defines the interface for output channels.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Send writes a single byte value to the channel.
	Send(value uint8) error
}
