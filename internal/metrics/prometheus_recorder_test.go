package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncRequest("GET", 200)
	pr.IncRequest("GET", 200)
	pr.IncRequest("PUT", 204)
	pr.IncPages(3)
	pr.IncPages(0)
	pr.IncMutation("set-collaborator", false)
	pr.IncMutation("set-collaborator", true)
	pr.ObserveOperationDuration("sync", 150*time.Millisecond)
	pr.IncOperationResult("sync", ResultSuccess)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.requests.WithLabelValues("GET", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.requests.WithLabelValues("PUT", "204")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.pages), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.mutations.WithLabelValues("set-collaborator", "true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.operationResults.WithLabelValues("sync", "success")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncRequest("GET", 200)
	pr.IncMutation("delete-repository", true)
	pr.IncPages(1)
	pr.ObserveOperationDuration("delete", time.Second)
	pr.IncOperationResult("delete", ResultAborted)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncMutation("create-repository", true)

	path := filepath.Join(t.TempDir(), "assignctl.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `assignctl_mutations_total{applied="true",kind="create-repository"} 1`))

	require.NoError(t, WriteTextfile("", reg), "empty path disables export")
}
