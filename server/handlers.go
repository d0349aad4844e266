package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/erraggy/oasbot"
	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/query"
	"github.com/erraggy/oasbot/registry"
	"github.com/erraggy/oasbot/router"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "oasbot",
		Version: oasbot.Version(),
	})
}

// bodyError keeps the 413 raised by the body limit middleware when it trips
// mid-read; any other body failure is a 400.
func bodyError(err error, message string) error {
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return echo.ErrStatusRequestEntityTooLarge
	}
	return echo.NewHTTPError(http.StatusBadRequest, message)
}

// webhook answers a conversational platform call. Business failures are
// answered with 200 and a canned message; only a malformed body is a 400.
func (s *Server) webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return bodyError(err, "failed to read request body")
	}

	req, err := router.ParseRequest(body)
	if err != nil {
		var verr *oaserrors.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:    http.StatusText(http.StatusBadRequest),
				Message:  "invalid webhook payload",
				Problems: verr.Problems,
			})
		}
		return err
	}
	return c.JSON(http.StatusOK, s.router.Handle(c.Request().Context(), req))
}

func (s *Server) listAPIs(c echo.Context) error {
	entries, err := s.reg.List(c.Request().Context())
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []registry.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// getAPI returns the entry whose name equals :name, ignoring case.
func (s *Server) getAPI(c echo.Context) error {
	entries, err := s.reg.List(c.Request().Context())
	if err != nil {
		return err
	}
	name := c.Param("name")
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return c.JSON(http.StatusOK, e)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "no api named "+name)
}

// CreateRequest is the body of POST /apis.
type CreateRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) createAPI(c echo.Context) error {
	var body CreateRequest
	if err := c.Bind(&body); err != nil {
		return bodyError(err, "invalid request body")
	}

	res, err := s.engine.Execute(c.Request().Context(), query.CreateAPI{Name: body.Name, URL: body.URL})
	if err != nil {
		return createError(err)
	}
	return c.JSON(http.StatusCreated, res.Entry)
}

func createError(err error) error {
	switch {
	case errors.Is(err, oaserrors.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "name and url are required")
	case errors.Is(err, oaserrors.ErrInvalidURL):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "url is not reachable")
	case errors.Is(err, oaserrors.ErrNameConflict):
		return echo.NewHTTPError(http.StatusConflict, "an api with this name already exists")
	case errors.Is(err, oaserrors.ErrURLConflict):
		return echo.NewHTTPError(http.StatusConflict, "an api pointing to this url already exists")
	case errors.Is(err, oaserrors.ErrInvalidSpec):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "not a valid Swagger 2.0 document")
	}
	return err
}

func (s *Server) deleteAPI(c echo.Context) error {
	name := c.Param("name")
	if err := s.reg.Delete(c.Request().Context(), name); err != nil {
		if errors.Is(err, oaserrors.ErrNoSuchAPI) {
			return echo.NewHTTPError(http.StatusNotFound, "no api named "+name)
		}
		return err
	}
	s.logger.Info("api deleted", "api", name)
	return c.NoContent(http.StatusNoContent)
}
