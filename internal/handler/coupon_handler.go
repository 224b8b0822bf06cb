package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/service"
)

const errAlumniNameRequired = "alumni name required"

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Generate(ctx context.Context, req *model.CouponRequest) (*model.CouponResponse, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// formatValidationError converts validator errors to client-facing messages.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			if field == "alumniName" {
				return errAlumniNameRequired
			}
			if fe.Tag() == "required" {
				return "invalid request: " + field + " is required"
			}
			return "invalid request: " + field + " is invalid"
		}
	}
	return "invalid request"
}

// GenerateCoupon handles POST /api/generateCoupon requests.
func (h *CouponHandler) GenerateCoupon(c *fiber.Ctx) error {
	var req model.CouponRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	resp, err := h.service.Generate(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errAlumniNameRequired})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("alumni_name", req.AlumniName).
			Msg("failed to generate coupon")
		if errors.Is(err, service.ErrResourceUnavailable) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "server error: coupon image or font file not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(resp)
}
