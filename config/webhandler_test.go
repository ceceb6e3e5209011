package config

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getValidRuntimeConfig(t *testing.T, cfile string) RuntimeConfig {
	t.Helper()
	conf, err := ReadConfig(cfile, false)
	require.NoError(t, err)
	return RuntimeConfig{Media: conf.Media, Playback: conf.Playback}
}

func TestConfigHandler_Get(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)
	handler := ConfigHandler(configFile)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got RuntimeConfig
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "/tmp/movies", got.Media.Dir)
	assert.Equal(t, 5*time.Millisecond, got.Playback.FrameDelay)
	assert.Equal(t, OpenFailureSkip, got.Playback.OpenFailure)
}

func TestConfigHandler_MethodNotAllowed(t *testing.T) {
	handler := ConfigHandler(createConfigFile(t, baseConfig))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestConfigHandler_SetValidation(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(rc *RuntimeConfig)
		wantStatus   int
		wantErrorMsg string
	}{
		{
			name: "Valid Update",
			modify: func(rc *RuntimeConfig) {
				rc.Playback.FrameDelay = 10 * time.Millisecond
				rc.Media.PreferredPrefix = "DOG"
			},
			wantStatus: http.StatusOK,
		},
		{
			name:         "Unknown open failure policy",
			modify:       func(rc *RuntimeConfig) { rc.Playback.OpenFailure = "retry" },
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "Playback.OpenFailure",
		},
		{
			name:         "Negative frame delay",
			modify:       func(rc *RuntimeConfig) { rc.Playback.FrameDelay = -time.Millisecond },
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "must not be negative",
		},
		{
			name:         "Bad exclude glob",
			modify:       func(rc *RuntimeConfig) { rc.Media.Exclude = []string{"[x"} },
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "Media.Exclude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := createConfigFile(t, baseConfig)
			before := getValidRuntimeConfig(t, configFile)

			payload := getValidRuntimeConfig(t, configFile)
			tt.modify(&payload)
			body, err := json.Marshal(payload)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			ConfigHandler(configFile).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBuffer(body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErrorMsg != "" {
				assert.Contains(t, w.Body.String(), tt.wantErrorMsg)
			}

			after, err := ReadConfig(configFile, false)
			require.NoError(t, err, "the config file must stay readable")
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, payload.Playback, after.Playback)
				assert.Equal(t, payload.Media, after.Media)
				assert.Equal(t, "/var/log/gomovie-hw.log", after.Logging.HW.File, "file-only sections are preserved")
			} else {
				assert.Equal(t, before.Playback, after.Playback, "rejected updates must not touch the file")
				assert.Equal(t, before.Media, after.Media)
			}
		})
	}
}

func TestConfigHandler_PartialUpdateMerges(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)
	before := getValidRuntimeConfig(t, configFile)

	body := `{"Playback": {"OpenFailure": "halt"}}`
	w := httptest.NewRecorder()
	ConfigHandler(configFile).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	after, err := ReadConfig(configFile, false)
	require.NoError(t, err)
	assert.Equal(t, OpenFailureHalt, after.Playback.OpenFailure)
	assert.Equal(t, before.Playback.FrameDelay, after.Playback.FrameDelay, "fields missing from the body are kept")
	assert.Equal(t, before.Media, after.Media, "sections missing from the body are kept")
}

func TestWriteFileAtomic(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)

	require.NoError(t, writeFileAtomic(configFile, []byte("Media: {Dir: /mnt}\n")))

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, "Media: {Dir: /mnt}\n", string(data))
	info, err := os.Stat(configFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(configFile))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file is left behind")
}

func TestConfigHandler_BadJSON(t *testing.T) {
	handler := ConfigHandler(createConfigFile(t, baseConfig))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString("{not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
