// SPDX-License-Identifier: MIT
package config

// BufferLength returns the number of raw samples in one capture.
func (c *Config) BufferLength() int {
	return c.Audio.SampleRate * c.Audio.CaptureSeconds
}

// WindowCount returns how many analysis windows fit into one capture.
func (c *Config) WindowCount() int {
	n := c.BufferLength()
	if n < FFTSize {
		return 0
	}
	return (n-FFTSize)/FFTHop + 1
}

// BinFrequency returns the centre frequency in Hz of analysis bin k.
func (c *Config) BinFrequency(k int) float64 {
	return float64(k) * float64(c.Audio.SampleRate) / float64(FFTSize)
}
