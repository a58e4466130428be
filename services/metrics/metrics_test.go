package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sps30-go/drivers/sps30"
	"sps30-go/errcode"
)

func TestSensorMetrics_Publish(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSensorMetrics(reg)

	var set sps30.MeasurementSet
	set.Width = sps30.Float32
	set.Values[sps30.MassPM2_5] = 12.5
	set.Values[sps30.TypicalSize] = 0.5
	m.Publish(set, 1700000000)

	assert.InDelta(t, 12.5, testutil.ToFloat64(m.Value.WithLabelValues("mc_pm2.5")), 1e-9)
	assert.InDelta(t, 0.5, testutil.ToFloat64(m.Value.WithLabelValues("typical_size")), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reads))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastReadTS))
	assert.Equal(t, int(sps30.NumChannels), testutil.CollectAndCount(m.Value, "sps30_value"))
	assert.Zero(t, testutil.CollectAndCount(m.Raw))
}

func TestSensorMetrics_PublishUInt16Raw(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSensorMetrics(reg)

	var set sps30.MeasurementSet
	set.Width = sps30.UInt16
	set.Raw[sps30.MassPM10] = 123
	set.Values[sps30.MassPM10] = 12.3
	m.Publish(set, 1)

	assert.InDelta(t, 12.3, testutil.ToFloat64(m.Value.WithLabelValues("mc_pm10.0")), 1e-6)
	assert.Equal(t, 123.0, testutil.ToFloat64(m.Raw.WithLabelValues("mc_pm10.0")))
	assert.Equal(t, int(sps30.NumChannels), testutil.CollectAndCount(m.Raw, "sps30_raw"))
}

func TestSensorMetrics_FailAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSensorMetrics(reg)

	m.Fail(errcode.ChecksumMismatch)
	m.Fail(errcode.ChecksumMismatch)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Errors.WithLabelValues("checksum_mismatch")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Errors.WithLabelValues("io_error")))

	m.SetStatus(sps30.StatusFlags{FanError: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Status.WithLabelValues(sps30.FlagFanError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Status.WithLabelValues(sps30.FlagLaserError)))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	NewSensorMetrics(reg).Fail(errcode.IOError)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `sps30_errors_total{code="io_error"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
