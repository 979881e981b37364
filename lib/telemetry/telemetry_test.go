package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupExportsTracesAndMetrics(t *testing.T) {
	collector := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))
	defer collector.Close()

	config := Config{
		Traces:  otlpConnConfig{HttpEndpoint: collector.URL},
		Metrics: otlpConnConfig{HttpEndpoint: collector.URL},
	}
	tel, err := Setup(context.Background(), "test:telemetry", config)
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)

	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestShutdownWithoutSetup(t *testing.T) {
	require.NoError(t, Telemetry{}.Shutdown(context.Background()))
}
