package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewContextLogsIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	vc := NewViewContext(logger, "tui", 3)
	_, err := uuid.Parse(vc.ViewID)
	require.NoError(t, err)

	vc.Info("graph built", slog.Int(LogFieldNodes, 4))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, vc.ViewID, entry[LogFieldViewID])
	assert.Equal(t, "tui", entry[LogFieldSurface])
	assert.EqualValues(t, 3, entry[LogFieldCreatorID])
	assert.EqualValues(t, 4, entry[LogFieldNodes])
}

func TestViewContextRoundTripsThroughContext(t *testing.T) {
	vc := NewViewContextWithID(nil, "fixed", "http", 1)
	ctx := WithViewContext(context.Background(), vc)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vc, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordMount("raster")
	m.RecordMount("raster")
	m.RecordFetch("raster", 30*time.Millisecond, false)
	m.RecordFetch("raster", 10*time.Millisecond, true)
	m.RecordFrame("raster")

	snap := m.Snapshot()["raster"]
	assert.Equal(t, int64(2), snap.Mounted)
	assert.Equal(t, int64(1), snap.FetchFailed)
	assert.Equal(t, int64(1), snap.Frames)
	assert.Equal(t, int64(20), snap.AverageFetchMs)

	m.Reset()
	assert.Empty(t, m.Snapshot())
}
