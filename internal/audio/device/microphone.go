// SPDX-License-Identifier: MIT
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beewatch/internal/audio"
	applog "beewatch/internal/log"

	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer is the blocking read size.
const framesPerBuffer = 512

// Microphone captures mono 16-bit audio from a PortAudio input device and
// maps it onto the 12-bit ADC range the DSP chain expects. The stream only
// runs while a capture is in progress.
type Microphone struct {
	device     *portaudio.DeviceInfo
	latency    time.Duration
	sampleRate int
	stream     *portaudio.Stream
	frame      []int16
}

// OpenMicrophone opens a blocking input stream on deviceID. PortAudio must
// already be initialised.
func OpenMicrophone(deviceID, sampleRate int) (*Microphone, error) {
	dev, err := InputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	m := &Microphone{
		device:     dev,
		latency:    dev.DefaultHighInputLatency,
		sampleRate: sampleRate,
		frame:      make([]int16, framesPerBuffer),
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  m.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, m.frame)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream on %q: %w", dev.Name, err)
	}
	m.stream = stream

	applog.Infof("[AUDIO] Microphone %q opened at %d Hz", dev.Name, sampleRate)
	return m, nil
}

// Capture records n samples.
func (m *Microphone) Capture(ctx context.Context, n int) ([]uint16, error) {
	if err := m.stream.Start(); err != nil {
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	defer func() {
		if err := m.stream.Stop(); err != nil {
			applog.Warnf("[AUDIO] Failed to stop input stream: %v", err)
		}
	}()

	buf := make([]uint16, 0, n)
	for len(buf) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.stream.Read(); err != nil {
			if !errors.Is(err, portaudio.InputOverflowed) {
				return nil, fmt.Errorf("failed to read input stream: %w", err)
			}
			applog.Warnf("[AUDIO] Input overflowed, samples were dropped")
		}
		buf = appendFrame(buf, m.frame, n)
	}
	return buf, nil
}

// Name implements audio.Source.
func (m *Microphone) Name() string { return "microphone(" + m.device.Name + ")" }

// Close releases the stream.
func (m *Microphone) Close() error {
	if m.stream == nil {
		return nil
	}
	err := m.stream.Close()
	m.stream = nil
	return err
}

// appendFrame converts frame to ADC samples and appends them to dst without
// growing it past limit.
func appendFrame(dst []uint16, frame []int16, limit int) []uint16 {
	for _, s := range frame {
		if len(dst) >= limit {
			break
		}
		dst = append(dst, audio.FromPCM16(s))
	}
	return dst
}

var _ audio.Source = (*Microphone)(nil)
