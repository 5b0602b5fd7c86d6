// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "beewatch/internal/log"
	"beewatch/internal/transport"
)

// PacketSender writes one datagram.
type PacketSender interface {
	Send(data []byte) error
	Close() error
}

// UDPPublisher packs the bin magnitudes of each monitor frame into a binary
// packet and sends it. Publishing happens on the caller's goroutine, once per
// pipeline pass.
type UDPPublisher struct {
	sender PacketSender
	now    func() time.Time

	mu          sync.Mutex
	sequenceNum uint32        // Monotonically increasing sequence number for packets.
	packet      *bytes.Buffer // Reusable buffer for constructing the binary packet.
}

// NewUDPPublisher wraps sender.
func NewUDPPublisher(sender PacketSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	return &UDPPublisher{
		sender: sender,
		now:    time.Now,
		packet: new(bytes.Buffer),
	}, nil
}

/*
UDP Packet Structure (BigEndian)

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Magnitude   |       Magnitudes        |
|      (uint32)     |   (int64, unix ns)    |     Count     |      (N * float32)      |
|                   |                       |    (uint16)   |                         |
+-------------------+-----------------------+---------------+-------------------------+
*/

// HeaderSize is the fixed part of a packet.
const HeaderSize = 4 + 8 + 2

// Encode appends one packet for mags to buf.
func Encode(buf *bytes.Buffer, seq uint32, ts time.Time, mags []float32) error {
	err := binary.Write(buf, binary.BigEndian, seq)
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, ts.UnixNano())
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(mags)))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, mags)
	}
	return err
}

// Send implements transport.Transport. Values other than transport.Frame
// are ignored.
func (p *UDPPublisher) Send(data any) error {
	frame, ok := data.(transport.Frame)
	if !ok {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sequenceNum++
	p.packet.Reset()
	if err := Encode(p.packet, p.sequenceNum, p.now(), frame.Bins); err != nil {
		return fmt.Errorf("failed to pack spectrum packet: %w", err)
	}
	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		applog.Warnf("[UDP] Error sending packet %d: %v", p.sequenceNum, err)
		return err
	}
	applog.Debugf("[UDP] Sent packet %d (%d bytes)", p.sequenceNum, p.packet.Len())
	return nil
}

// Close closes the sender.
func (p *UDPPublisher) Close() error {
	return p.sender.Close()
}

var _ transport.Transport = (*UDPPublisher)(nil)
