// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"beewatch/internal/audio"
	"beewatch/internal/config"
	"beewatch/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file pointing the flash image into dir.
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	data := "storage:\n  path: " + filepath.Join(dir, "beewatch.flash") + "\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(context.Background())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")

	out, err := execute(t, "config", "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "missing or invalid, showing defaults")
	assert.Contains(t, out, store.DefaultNodeID)

	out, err = execute(t, "config", "set-server", "10.1.2.3:9000", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Server set to 10.1.2.3:9000")

	out, err = execute(t, "config", "set-wifi", "Apiary", "two", "words", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SSID: Apiary")

	saved, err := store.NewFlashFile(filepath.Join(dir, "beewatch.flash")).Read()
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", saved.ServerIP)
	assert.EqualValues(t, 9000, saved.ServerPort)
	assert.Equal(t, "two words", saved.WifiPass)

	out, err = execute(t, "config", "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(valid)")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "two words")

	_, err = execute(t, "config", "set-server", "hive.local", "--config", cfgPath)
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "hum.wav")
	samples, err := audio.NewTone(config.SampleRateHz, 250).Capture(context.Background(), config.SampleRateHz*config.CaptureSeconds)
	require.NoError(t, err)
	require.NoError(t, audio.WriteWAV(wavPath, samples, config.SampleRateHz))

	t.Run("summer without model", func(t *testing.T) {
		cfgPath := writeConfig(t, dir, "")
		out, err := execute(t, "replay", wavPath, "--config", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "--- summer features (20) ---")
		assert.Contains(t, out, "f[0] temp")
		assert.Contains(t, out, "25.000000")
		assert.NotContains(t, out, "classification")
	})

	t.Run("winter with model", func(t *testing.T) {
		model, err := filepath.Abs("../internal/classifier/testdata/winter.yaml")
		require.NoError(t, err)
		cfgPath := writeConfig(t, dir, "classifier:\n  winter_model: "+model+"\n")
		out, err := execute(t, "replay", wavPath, "--model", "winter", "--config", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "--- winter features (5) ---")
		assert.Contains(t, out, "anomaly score:")
	})

	t.Run("unknown model", func(t *testing.T) {
		cfgPath := writeConfig(t, dir, "")
		_, err := execute(t, "replay", wavPath, "--model", "spring", "--config", cfgPath)
		assert.ErrorContains(t, err, "unknown model")
	})
}
