package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/haatos/simple-qa/internal"
	"github.com/stretchr/testify/assert"
)

func TestConfigHandler(t *testing.T) {
	t.Cleanup(func() { internal.SetConfiguration(internal.DefaultConfiguration()) })

	t.Run("success - current configuration returned", func(t *testing.T) {
		// arrange
		internal.SetConfiguration(internal.DefaultConfiguration())
		e, g := newTestEcho()
		SetupConfigRoutes(g, NewConfigHandler(filepath.Join(t.TempDir(), "config.json")))

		// act
		rec := doRequest(e, http.MethodGet, "/api/config", "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"queue_size":50`)
	})
	t.Run("success - partial update persisted", func(t *testing.T) {
		// arrange
		internal.SetConfiguration(internal.DefaultConfiguration())
		path := filepath.Join(t.TempDir(), "config.json")
		e, g := newTestEcho()
		SetupConfigRoutes(g, NewConfigHandler(path))

		// act
		rec := doRequest(e, http.MethodPut, "/api/config", `{"workers":2,"webhook_timeout_seconds":3}`)

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		current := internal.CurrentConfiguration()
		assert.Equal(t, int64(2), current.Workers)
		assert.Equal(t, int64(50), current.QueueSize)
		b, err := os.ReadFile(path)
		assert.NoError(t, err)
		var persisted internal.Configuration
		assert.NoError(t, json.Unmarshal(b, &persisted))
		assert.Equal(t, int64(2), persisted.Workers)
	})
	t.Run("failure - invalid configuration rejected", func(t *testing.T) {
		// arrange
		internal.SetConfiguration(internal.DefaultConfiguration())
		path := filepath.Join(t.TempDir(), "config.json")
		e, g := newTestEcho()
		SetupConfigRoutes(g, NewConfigHandler(path))

		// act
		rec := doRequest(e, http.MethodPut, "/api/config", `{"demo_pass_probability":1.5}`)

		// assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "demo_pass_probability")
		assert.Equal(t, 2.0/3.0, internal.CurrentConfiguration().DemoPassProbability)
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}
