// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder saves captures as 16-bit mono WAV files in a directory.
type Recorder struct {
	dir        string
	sampleRate int
	now        func() time.Time
}

// NewRecorder returns a recorder writing into dir.
func NewRecorder(dir string, sampleRate int) *Recorder {
	return &Recorder{dir: dir, sampleRate: sampleRate, now: time.Now}
}

// Save writes samples to a new timestamped file and returns its path.
func (r *Recorder) Save(samples []uint16) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recordings directory: %w", err)
	}
	name := "stream-" + r.now().UTC().Format("20060102-150405.000") + ".wav"
	path := filepath.Join(r.dir, name)
	if err := WriteWAV(path, samples, r.sampleRate); err != nil {
		return "", err
	}
	return path, nil
}

// WriteWAV writes samples to path as 16-bit mono PCM.
func WriteWAV(path string, samples []uint16, sampleRate int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(ToPCM16(s))
	}

	if err := enc.Write(buf); err != nil {
		file.Close()
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to finalise wav file: %w", err)
	}
	return file.Close()
}
