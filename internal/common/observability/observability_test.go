package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"studyabroad-workers/internal/common/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RecordsJobsOnPrivateRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	o := New(Options{
		Config:     config.ObservabilityConfig{ServiceName: "test", SampleRatio: 1},
		Registerer: reg,
	})
	defer func() { _ = o.Shutdown(context.Background()) }()

	o.RecordJob(context.Background(), "lock-university", "completed", 15*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "jobs_processed") {
			found = true
		}
	}
	assert.True(t, found, "jobs.processed counter not exported")
}

func TestStartJobSpan_EndsWithError(t *testing.T) {
	o := New(Options{
		Config:     config.ObservabilityConfig{SampleRatio: 1},
		Registerer: promclient.NewRegistry(),
	})
	defer func() { _ = o.Shutdown(context.Background()) }()

	ctx, span := StartJobSpan(context.Background(), "update-shortlist", 42)
	assert.True(t, span.SpanContext().IsValid())
	assert.NotNil(t, ctx)

	EndSpan(span, errors.New("boom"))
	assert.False(t, span.IsRecording())
}
