// SPDX-License-Identifier: MIT

//go:build linux

package climate

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is the I2C_SLAVE ioctl from linux/i2c-dev.h.
const i2cSlave = 0x0703

// I2CDev is a Bus backed by a Linux /dev/i2c-N character device.
type I2CDev struct {
	mu   sync.Mutex
	f    *os.File
	addr int
}

// OpenI2C opens the i2c-dev node at path.
func OpenI2C(path string) (*I2CDev, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %s: %w", path, err)
	}
	return &I2CDev{f: f, addr: -1}, nil
}

func (d *I2CDev) selectAddr(addr uint8) error {
	if d.addr == int(addr) {
		return nil
	}
	if err := unix.IoctlSetInt(int(d.f.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("select i2c address 0x%02x: %w", addr, err)
	}
	d.addr = int(addr)
	return nil
}

// Write implements Bus.
func (d *I2CDev) Write(addr uint8, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectAddr(addr); err != nil {
		return err
	}
	_, err := d.f.Write(data)
	return err
}

// Read implements Bus.
func (d *I2CDev) Read(addr uint8, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectAddr(addr); err != nil {
		return err
	}
	n, err := d.f.Read(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short i2c read: %d of %d bytes", n, len(buf))
	}
	return nil
}

// Close releases the device node.
func (d *I2CDev) Close() error {
	return d.f.Close()
}
