package handler

import (
	"net/http"

	"github.com/haatos/simple-qa/internal"
	"github.com/labstack/echo/v4"
)

type ConfigHandler struct {
	path string
}

func NewConfigHandler(path string) *ConfigHandler {
	return &ConfigHandler{path}
}

func SetupConfigRoutes(g *echo.Group, h *ConfigHandler) {
	g.GET("/config", h.GetConfig)
	g.PUT("/config", h.PutConfig)
}

func (h *ConfigHandler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, internal.CurrentConfiguration())
}

// PutConfig replaces the runtime configuration. Fields missing from the
// body keep their current values.
func (h *ConfigHandler) PutConfig(c echo.Context) error {
	config := internal.CurrentConfiguration()
	if err := c.Bind(&config); err != nil {
		return newError(err, http.StatusBadRequest, "invalid config data")
	}

	if err := config.Validate(); err != nil {
		return newError(err, http.StatusBadRequest, err.Error())
	}
	if err := internal.UpdateConfiguration(h.path, &config); err != nil {
		return newError(
			err,
			http.StatusInternalServerError,
			"unable to update configuration file",
		)
	}

	return c.JSON(http.StatusOK, config)
}
