package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

type PredictHandler struct {
	predictions ports.PredictionService
}

func NewPredictHandler(predictions ports.PredictionService) *PredictHandler {
	return &PredictHandler{predictions: predictions}
}

// Predict accepts a multipart scan upload and returns the malignancy
// assessment. Unparseable files still produce a result; only a missing file
// part or an unloaded model fail the request.
//
// @Summary      Analyse an uploaded scan
// @Tags         predict
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Scan image (DICOM, PNG, JPEG)"
// @Success      200   {object}  domain.PredictionResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /predict [post]
func (h *PredictHandler) Predict(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	result, err := h.predictions.Predict(c.Request().Context(), identity, fileHeader.Filename, content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
