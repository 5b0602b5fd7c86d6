// SPDX-License-Identifier: MIT
package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"beewatch/internal/analysis"
	"beewatch/internal/command"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()
	m.Command(command.Command{Kind: command.Ping, Origin: command.Remote})
	m.Command(command.Command{Kind: command.Ping, Origin: command.Remote})
	m.Request("poll", nil)
	m.Request("poll", errors.New("timeout"))
	m.Inference("summer", "Normal")

	out := scrape(t, m)
	assert.Contains(t, out, `beewatch_commands_total{kind="ping",origin="remote"} 2`)
	assert.Contains(t, out, `beewatch_requests_total{kind="poll",result="error"} 1`)
	assert.Contains(t, out, `beewatch_requests_total{kind="poll",result="ok"} 1`)
	assert.Contains(t, out, `beewatch_inferences_total{classification="Normal",model="summer"} 1`)
}

func TestGauges(t *testing.T) {
	m := New()
	var r analysis.Result
	r.Bins[6] = 0.5
	r.Density = 0.25
	m.Pass(&r)
	m.Climate(34.5, 61)
	m.Settings(0.5, true)
	m.Anomaly(0.75)

	out := scrape(t, m)
	assert.Contains(t, out, "beewatch_pipeline_passes_total 1")
	assert.Contains(t, out, "beewatch_audio_density 0.25")
	assert.Contains(t, out, `beewatch_bin_magnitude{bin="6"} 0.5`)
	assert.Contains(t, out, "beewatch_temperature_celsius 34.5")
	assert.Contains(t, out, "beewatch_humidity_percent 61")
	assert.Contains(t, out, "beewatch_gain_compensation 0.5")
	assert.Contains(t, out, "beewatch_mock_mode 1")
	assert.Contains(t, out, "beewatch_winter_anomaly_score 0.75")
}
