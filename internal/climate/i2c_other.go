// SPDX-License-Identifier: MIT

//go:build !linux

package climate

import (
	"errors"
)

var errI2CUnsupported = errors.New("i2c is only supported on linux")

// I2CDev is unavailable on this platform.
type I2CDev struct{}

// OpenI2C always fails on this platform.
func OpenI2C(string) (*I2CDev, error) { return nil, errI2CUnsupported }

func (*I2CDev) Write(uint8, []byte) error { return errI2CUnsupported }
func (*I2CDev) Read(uint8, []byte) error { return errI2CUnsupported }
func (*I2CDev) Close() error { return nil }
