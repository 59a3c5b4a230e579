package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oncoscan/oncoscan-api/internal/api/metrics"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

type ModelHandler struct {
	model ports.ModelService
}

func NewModelHandler(model ports.ModelService) *ModelHandler {
	return &ModelHandler{model: model}
}

// Status reports the model service's backend and load state.
//
// @Summary      Model service status
// @Tags         model
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /status [get]
func (h *ModelHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Service: "oncoscan",
		Model:   h.model.Status(),
	})
}

// Reload re-runs model loading and returns the new status. Destructive:
// requests in flight during the swap may observe either backend.
//
// @Summary      Reload the model
// @Tags         model
// @Produce      json
// @Success      200  {object}  ports.ModelStatus
// @Failure      403  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /models/reload [post]
func (h *ModelHandler) Reload(c echo.Context) error {
	status, err := h.model.Reload(c.Request().Context())
	if err != nil {
		metrics.ModelReloadsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.ModelReloadsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, status)
}
