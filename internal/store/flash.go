// SPDX-License-Identifier: MIT
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	applog "beewatch/internal/log"
)

// Storage loads and saves the SystemConfig.
type Storage interface {
	Load() SystemConfig
	Save(SystemConfig) error
}

// FlashFile emulates the config sector of the node's flash with a file.
type FlashFile struct {
	path string
}

// NewFlashFile returns a store backed by the sector image at path.
func NewFlashFile(path string) *FlashFile {
	return &FlashFile{path: path}
}

// Path returns the image location.
func (f *FlashFile) Path() string { return f.path }

// Load returns the stored config, or Defaults when the sector is missing,
// erased or corrupt.
func (f *FlashFile) Load() SystemConfig {
	cfg, err := f.Read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			applog.Debugf("[FLASH] %v", err)
		}
		applog.Infof("[FLASH] No valid config, using defaults")
		return Defaults()
	}
	applog.Infof("[FLASH] Config loaded: SSID=%s, Server=%s:%d, Node=%s",
		cfg.WifiSSID, cfg.ServerIP, cfg.ServerPort, cfg.NodeID)
	return cfg
}

// Read decodes the sector without falling back to defaults.
func (f *FlashFile) Read() (SystemConfig, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return SystemConfig{}, err
	}
	return Decode(data)
}

// Save erases the sector and programs the first page with cfg. The sector is
// replaced atomically so an interrupted save leaves the previous image.
func (f *FlashFile) Save(cfg SystemConfig) error {
	sector := bytes.Repeat([]byte{0xFF}, SectorSize)

	page := sector[:PageSize]
	copy(page, Encode(cfg))

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".flash-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary sector: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sector); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to program sector: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to program sector: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to commit sector: %w", err)
	}

	applog.Infof("[FLASH] Config saved")
	return nil
}

var _ Storage = (*FlashFile)(nil)
