package io

import (
	"errors"

	"github.com/Michael-Bailar/Computer-Architecture/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelClosed = errors.New(f("channel closed"))
)
