package http

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // invalid_input, no_match, routing_failure, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, string(domain.KindInvalidInput), msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput, domain.KindGeocodingFailure, domain.KindNoMatch, domain.KindNoRouteFound:
		return fiber.StatusBadRequest
	case domain.KindRoutingFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// errDomain renders a classified error with its message, or a generic 500
// for anything unclassified.
func errDomain(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		logging.FromContext(c.UserContext()).Error("request failed", "error", err)
		return errInternal(c, "internal error")
	}
	status := statusFor(de.Kind)
	level := slog.LevelInfo
	if status >= fiber.StatusInternalServerError || de.Kind == domain.KindRoutingFailure {
		level = slog.LevelWarn
	}
	logging.FromContext(c.UserContext()).Log(c.UserContext(), level, "request rejected",
		"kind", de.Kind, "mode", de.Mode, "error", err)
	return newError(c, status, string(de.Kind), de.Error())
}

// legacyError renders err as {"error": message}, the body the pre-v1 routes
// returned.
func legacyError(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		logging.FromContext(c.UserContext()).Error("request failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(legacyStatusFor(de)).JSON(fiber.Map{"error": de.Error()})
}

// legacyStatusFor keeps the statuses the pre-v1 routes answered with: a
// provider refusal of the driving route is a 400, walking failures and
// unexpected driving errors are 500s.
func legacyStatusFor(de *domain.Error) int {
	if de.Kind != domain.KindRoutingFailure {
		return statusFor(de.Kind)
	}
	if de.Mode == domain.ModeWalking || strings.HasPrefix(de.Message, domain.UnexpectedPrefix) {
		return fiber.StatusInternalServerError
	}
	return fiber.StatusBadRequest
}
