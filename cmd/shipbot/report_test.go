package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/shipbot/pkg/shipbot"
)

// isolateEnv clears every variable the command reads so host CI settings cannot leak in.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "SHIPBOT_") || strings.HasPrefix(key, "OTEL_") || strings.HasPrefix(key, "GITHUB_") {
			t.Setenv(key, "")
		}
	}
	workdir := t.TempDir()
	t.Setenv("GITHUB_WORKSPACE", workdir)
	return workdir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	cmd := newRootCmd()
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stderr.String(), err
}

func TestReportCreatesDeploymentAndWritesOutput(t *testing.T) {
	workdir := isolateEnv(t)
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deployment", r.URL.Path)
		assert.Equal(t, "key-abc", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"id":"dep-77"}`))
	}))
	defer server.Close()

	require.NoError(t, os.WriteFile(filepath.Join(workdir, "artifact.json"), []byte(`{"artifactId":"art-5"}`), 0o644))
	outputPath := filepath.Join(t.TempDir(), "github_output")
	t.Setenv("SHIPBOT_API_KEY", "key-abc")
	t.Setenv("SHIPBOT_API_HOST", server.URL)
	t.Setenv("SHIPBOT_VERSION", "3.1.0")
	t.Setenv("SHIPBOT_ENVIRONMENT", "production")
	t.Setenv("SHIPBOT_ARTIFACT_CONFIG", "artifact.json")
	t.Setenv("SHIPBOT_COMMIT_SHA", "abc123")
	t.Setenv("SHIPBOT_CDEVENT_FILE", "out/deployed.json")
	t.Setenv("GITHUB_OUTPUT", outputPath)

	logs, err := execute(t)
	require.NoError(t, err)

	assert.Equal(t, "3.1.0", received["version"])
	assert.Equal(t, "art-5", received["artifactId"])
	assert.Equal(t, "abc123", received["commitSha"])
	assert.Equal(t, "STANDARD", received["type"])

	output, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "deploymentId=dep-77\n", string(output))

	event, err := os.ReadFile(filepath.Join(workdir, "out", "deployed.json"))
	require.NoError(t, err)
	assert.Contains(t, string(event), "service/art-5")

	assert.Contains(t, logs, "Deployment successfully tracked in Shipbot")
	assert.NotContains(t, logs, "key-abc")
}

func TestReportFailureModes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	for _, tc := range []struct {
		mode    string
		wantErr bool
	}{
		{mode: "HARD", wantErr: true},
		{mode: "soft", wantErr: false},
	} {
		t.Run(tc.mode, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv("SHIPBOT_API_KEY", "k")
			t.Setenv("SHIPBOT_API_HOST", server.URL)
			t.Setenv("SHIPBOT_DEPLOYMENT_ID", "42")
			t.Setenv("SHIPBOT_STATUS", "FAILED")
			t.Setenv("SHIPBOT_FAILURE_MODE", tc.mode)

			logs, err := execute(t)
			assert.Contains(t, logs, "Shipbot server error occurred")
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shipbot.ErrServerError), "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestReportValidationErrorIsFatalInSoftMode(t *testing.T) {
	isolateEnv(t)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	t.Setenv("SHIPBOT_API_KEY", "k")
	t.Setenv("SHIPBOT_API_HOST", server.URL)
	t.Setenv("SHIPBOT_FAILURE_MODE", "SOFT")
	t.Setenv("SHIPBOT_ENVIRONMENT", "prod")

	_, err := execute(t)
	require.ErrorIs(t, err, shipbot.ErrValidation)
	assert.Contains(t, err.Error(), "SHIPBOT_VERSION")
	assert.Zero(t, hits.Load())
}

func TestReportDryRunSendsNothing(t *testing.T) {
	isolateEnv(t)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	t.Setenv("SHIPBOT_VERSION", "1.0.0")
	t.Setenv("SHIPBOT_ENVIRONMENT", "staging")

	logs, err := execute(t, "--dry-run", "--api-host", server.URL, "--log-level", "debug")
	require.NoError(t, err)
	assert.Zero(t, hits.Load())
	assert.Contains(t, logs, "Dry run, request not sent")
	assert.Contains(t, logs, server.URL+"/deployment")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "shipbot version dev")
}
