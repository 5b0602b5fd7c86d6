// SPDX-License-Identifier: MIT
package transport

import (
	applog "beewatch/internal/log"
)

// LoggingTransport implements the Transport interface by logging frames at
// debug level. It is used when no monitor is configured.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("[MON] Using logging transport")
	return &LoggingTransport{}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	switch f := data.(type) {
	case Frame:
		applog.Debugf("[MON] pass model=%s density=%.6f windows=%d bands=%v", f.Model, f.Density, f.Windows, f.Bands)
	default:
		applog.Debugf("[MON] %T: %+v", data, data)
	}
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
