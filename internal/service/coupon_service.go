package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/stamp"
)

// FolioCounter issues sequential folio numbers. Implementations must be safe
// for concurrent use and never return the same value twice.
type FolioCounter interface {
	Next(ctx context.Context) (int64, error)
}

// CouponRenderer draws a coupon and returns the encoded image.
type CouponRenderer interface {
	Render(folio, alumni, recipient string) ([]byte, error)
}

// CouponService provides business logic for coupon generation.
type CouponService struct {
	counter  FolioCounter
	renderer CouponRenderer
	logger   zerolog.Logger
}

// NewCouponService creates a new CouponService with the given counter and renderer.
func NewCouponService(counter FolioCounter, renderer CouponRenderer, logger zerolog.Logger) *CouponService {
	return &CouponService{
		counter:  counter,
		renderer: renderer,
		logger:   logger,
	}
}

// FormatFolio renders a folio number as a zero-padded 4-digit string.
func FormatFolio(n int64) string {
	return fmt.Sprintf("%04d", n)
}

// Generate stamps a new coupon.
// Returns ErrInvalidRequest if the alumni name is missing; no folio is consumed.
// Returns ErrResourceUnavailable if the base image cannot be loaded.
// A folio, once issued, is never reused even if rendering later fails.
func (s *CouponService) Generate(ctx context.Context, req *model.CouponRequest) (*model.CouponResponse, error) {
	// Defense-in-depth: check even though handler validates
	if req == nil || strings.TrimSpace(req.AlumniName) == "" {
		return nil, ErrInvalidRequest
	}

	n, err := s.counter.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("next folio: %w", err)
	}
	folio := FormatFolio(n)

	img, err := s.renderer.Render(folio, req.AlumniName, req.RecipientName)
	if err != nil {
		s.logger.Error().Err(err).Str("folio", folio).Msg("coupon rendering failed, folio consumed")
		if errors.Is(err, stamp.ErrBaseImage) {
			return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
		}
		return nil, fmt.Errorf("render coupon: %w", err)
	}

	s.logger.Info().
		Str("folio", folio).
		Str("alumni_name", req.AlumniName).
		Bool("has_recipient", strings.TrimSpace(req.RecipientName) != "").
		Msg("coupon generated")

	return &model.CouponResponse{
		CouponImage: base64.StdEncoding.EncodeToString(img),
		Folio:       folio,
	}, nil
}
