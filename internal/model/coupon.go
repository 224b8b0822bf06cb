package model

// CouponRequest is the DTO for POST /api/generateCoupon
type CouponRequest struct {
	AlumniName    string `json:"alumniName" validate:"required,notblank"`
	RecipientName string `json:"recipientName"`
}

// CouponResponse is the API response DTO for POST /api/generateCoupon
type CouponResponse struct {
	CouponImage string `json:"couponImage"` // base64-encoded JPEG
	Folio       string `json:"folio"`
}
