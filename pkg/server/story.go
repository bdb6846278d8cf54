package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"fabula/pkg/story"
	"fabula/pkg/utils"
)

type storyReq struct {
	Descriptions []string `json:"descriptions"`
	Names        []string `json:"names"`
	Genre        string   `json:"genre"`
	Length       int      `json:"length"`
}

type storyResponse struct {
	Descriptions []string `json:"descriptions,omitempty"`
	Story        string   `json:"story"`
}

// POST /api/story
func (s *Server) handlePostStory(c echo.Context) error {
	reqID := ksuid.New().String()

	var req storyReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/story", "request", reqID, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	names := utils.NonBlank(req.Names)
	if len(names) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one non-blank name is required")
	}
	genre, err := story.ParseGenre(req.Genre)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Length < story.MinStoryWords || req.Length > story.MaxStoryWords {
		return echo.NewHTTPError(http.StatusBadRequest, "length must be between "+strconv.Itoa(story.MinStoryWords)+" and "+strconv.Itoa(story.MaxStoryWords)+" words")
	}

	out := s.Composer.Compose(c.Request().Context(), req.Descriptions, names, genre, req.Length)
	if out == story.FailureSentinel {
		log.Error("story composition failed", "request", reqID)
		return c.JSON(http.StatusBadGateway, utils.ErrJSON("failed to generate story"))
	}

	return c.JSON(http.StatusOK, storyResponse{Story: out})
}

// POST /api/generate
//
// One-shot flow: image plus form fields. The vision stage runs (or is
// served from cache when the same image was described moments ago), then
// the story stage. Surplus names beyond the description count are dropped;
// fewer names than descriptions is allowed.
func (s *Server) handlePostGenerate(c echo.Context) error {
	reqID := ksuid.New().String()

	image, err := readImage(c)
	if err != nil {
		log.Warn("invalid generate upload", "request", reqID, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "image payload required")
	}

	names := utils.NonBlank(strings.Split(c.FormValue("names"), ","))
	if len(names) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one non-blank name is required")
	}
	genre, err := story.ParseGenre(c.FormValue("genre"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	length, err := strconv.Atoi(strings.TrimSpace(c.FormValue("length")))
	if err != nil || length < story.MinStoryWords || length > story.MaxStoryWords {
		return echo.NewHTTPError(http.StatusBadRequest, "length must be between "+strconv.Itoa(story.MinStoryWords)+" and "+strconv.Itoa(story.MaxStoryWords)+" words")
	}

	ctx := c.Request().Context()

	descriptions := s.Describer.Describe(ctx, image)
	if len(descriptions) == 0 {
		log.Error("describe failed", "request", reqID, "bytes", len(image))
		return c.JSON(http.StatusBadGateway, utils.ErrJSON("failed to process image"))
	}

	if len(names) > len(descriptions) {
		log.Warn("more names than described people, dropping surplus", "request", reqID, "names", len(names), "people", len(descriptions))
		names = names[:len(descriptions)]
	}

	out := s.Composer.Compose(ctx, descriptions, names, genre, length)
	if out == story.FailureSentinel {
		log.Error("story composition failed", "request", reqID)
		return c.JSON(http.StatusBadGateway, utils.ErrJSON("failed to generate story"))
	}

	return c.JSON(http.StatusOK, storyResponse{Descriptions: descriptions, Story: out})
}
