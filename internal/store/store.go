// SPDX-License-Identifier: MIT

// Package store persists the node's SystemConfig in a flash sector image.
//
// The image layout is the little-endian C struct the firmware writes to the
// last 4 KB sector of flash:
//
//	offset  size  field
//	0       4     magic (0xBEE5CAFE)
//	4       32    wifi_ssid
//	36      64    wifi_pass
//	100     16    server_ip
//	116     2     server_port
//	118     32    node_id
//	150     2     padding
//	152     4     checksum (byte sum of offsets 0-151)
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Flash geometry.
const (
	SectorSize = 4096
	PageSize   = 256
)

// Magic marks a programmed config.
const Magic uint32 = 0xBEE5CAFE

// Defaults used when no valid config is stored.
const (
	DefaultServerIP   = "192.168.0.100"
	DefaultServerPort = 8000
	DefaultNodeID     = "pico-hive-001"
)

// ErrInvalidConfig is returned when an image has a bad magic or checksum.
var ErrInvalidConfig = errors.New("invalid config image")

// SystemConfig holds the node identity, server address and WiFi credentials.
type SystemConfig struct {
	WifiSSID   string
	WifiPass   string
	ServerIP   string
	ServerPort uint16
	NodeID     string
}

// Defaults returns the factory configuration.
func Defaults() SystemConfig {
	return SystemConfig{
		ServerIP:   DefaultServerIP,
		ServerPort: DefaultServerPort,
		NodeID:     DefaultNodeID,
	}
}

// ServerAddr returns host:port for the sync server.
func (c SystemConfig) ServerAddr() string {
	return net.JoinHostPort(c.ServerIP, strconv.Itoa(int(c.ServerPort)))
}

// image is the on-flash representation.
type image struct {
	Magic      uint32
	WifiSSID   [32]byte
	WifiPass   [64]byte
	ServerIP   [16]byte
	ServerPort uint16
	NodeID     [32]byte
	_          [2]byte
	Checksum   uint32
}

// ImageSize is the encoded size of a SystemConfig.
var ImageSize = binary.Size(image{})

const checksumOffset = 152

// Checksum sums every byte that precedes the checksum field.
func Checksum(b []byte) uint32 {
	var sum uint32
	for _, v := range b[:checksumOffset] {
		sum += uint32(v)
	}
	return sum
}

// Encode renders c as a checksummed image. Strings longer than their field
// are truncated so that a terminating NUL always fits.
func Encode(c SystemConfig) []byte {
	img := image{Magic: Magic, ServerPort: c.ServerPort}
	putString(img.WifiSSID[:], c.WifiSSID)
	putString(img.WifiPass[:], c.WifiPass)
	putString(img.ServerIP[:], c.ServerIP)
	putString(img.NodeID[:], c.NodeID)

	var buf bytes.Buffer
	buf.Grow(ImageSize)
	// Writing into a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, &img)
	b := buf.Bytes()
	binary.LittleEndian.PutUint32(b[checksumOffset:], Checksum(b))
	return b
}

// Decode parses an image, verifying the magic and checksum.
func Decode(b []byte) (SystemConfig, error) {
	if len(b) < ImageSize {
		return SystemConfig{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidConfig, len(b), ImageSize)
	}
	var img image
	if err := binary.Read(bytes.NewReader(b[:ImageSize]), binary.LittleEndian, &img); err != nil {
		return SystemConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if img.Magic != Magic {
		return SystemConfig{}, fmt.Errorf("%w: bad magic 0x%08X", ErrInvalidConfig, img.Magic)
	}
	if sum := Checksum(b); img.Checksum != sum {
		return SystemConfig{}, fmt.Errorf("%w: checksum 0x%08X, want 0x%08X", ErrInvalidConfig, img.Checksum, sum)
	}
	return SystemConfig{
		WifiSSID:   cString(img.WifiSSID[:]),
		WifiPass:   cString(img.WifiPass[:]),
		ServerIP:   cString(img.ServerIP[:]),
		ServerPort: img.ServerPort,
		NodeID:     cString(img.NodeID[:]),
	}, nil
}

func putString(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	clear(dst[n:])
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
