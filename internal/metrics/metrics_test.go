package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCollectorsAreExported(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClient(reg)

	m.Polls.Inc()
	m.Polls.Inc()
	m.Sends.WithLabelValues("sent").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Polls))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.True(t, strings.Contains(out, "chatsy_client_polls_total 2"), out)
	assert.True(t, strings.Contains(out, `chatsy_client_sends_total{outcome="sent"} 1`), out)
}

func TestNilRegistererStillCounts(t *testing.T) {
	m := NewClient(nil)
	m.PollFailures.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollFailures))
}

func TestServerCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServer(reg)
	m.Appended.Add(3)
	m.Subscribers.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Appended))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscribers))
	// One series no matter how many rooms were written to.
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "chatsy_server_messages_appended_total"))
}
