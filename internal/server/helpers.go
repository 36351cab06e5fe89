package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a route parameter as a positive id. Anything else is a
// missing page, since ids only ever come from URLs.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError("page", c.Params(param))
	}
	return uint(id), nil
}

// respondError maps err onto a response: a login redirect for anonymous
// visitors, a 404 page, or an error page. JSON clients get ErrorResponse.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	var fiberErr *fiber.Error
	if !errors.As(err, &appErr) && !errors.As(err, &fiberErr) {
		err = models.NewInternalError(err)
	}

	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}

	if wantsJSON(c) {
		return models.RespondWithError(c, status, err)
	}

	switch status {
	case fiber.StatusUnauthorized:
		return c.Redirect(loginURL(s.config.LoginURL, c.OriginalURL()), fiber.StatusFound)
	case fiber.StatusNotFound:
		c.Status(status)
		return s.render(c, "core/404", fiber.Map{"title": "Page not found"})
	}

	message := "Something went wrong on our side."
	if status < fiber.StatusInternalServerError {
		message = publicMessage(err)
	}
	c.Status(status)
	return s.render(c, "core/error", fiber.Map{"status": status, "message": message})
}

// ErrorHandler is the Fiber error handler; it renders whatever a handler or
// middleware returned.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	if rerr := s.respondError(c, err); rerr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to render error page",
			slog.String("error", rerr.Error()))
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	return nil
}

func publicMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Message
	}
	return err.Error()
}

// loginURL builds LOGIN_URL?next=<path>, leaving slashes readable.
func loginURL(login, next string) string {
	sep := "?"
	if strings.Contains(login, "?") {
		sep = "&"
	}
	return login + sep + "next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// safeNext returns next when it is a local path, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func fmtID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
