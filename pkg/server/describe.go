package server

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"fabula/pkg/utils"
)

// maxImageBytes bounds uploads; the original widget accepted single files
// and the completion backends reject anything this large anyway.
const maxImageBytes = 20 << 20

type describeResponse struct {
	Descriptions []string `json:"descriptions"`
}

// POST /api/describe
func (s *Server) handlePostDescribe(c echo.Context) error {
	reqID := ksuid.New().String()

	image, err := readImage(c)
	if err != nil {
		log.Warn("invalid describe upload", "request", reqID, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "image payload required")
	}

	descriptions := s.Describer.Describe(c.Request().Context(), image)
	if len(descriptions) == 0 {
		log.Error("describe failed", "request", reqID, "bytes", len(image))
		return c.JSON(http.StatusBadGateway, utils.ErrJSON("failed to process image"))
	}

	return c.JSON(http.StatusOK, describeResponse{Descriptions: descriptions})
}

// readImage accepts either a multipart form with an "image" field or the
// raw image bytes as the request body.
func readImage(c echo.Context) ([]byte, error) {
	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return io.ReadAll(io.LimitReader(src, maxImageBytes))
	}

	return io.ReadAll(io.LimitReader(c.Request().Body, maxImageBytes))
}
