package checkout

import (
	"github.com/google/uuid"

	"github.com/shoeparadise/storefront-backend/pkg/db/models"
)

// ItemInput is one requested variant/quantity pair.
type ItemInput struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0,lte=99"`
}

// Request is the checkout payload.
type Request struct {
	Items             []ItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddressID uuid.UUID   `json:"shipping_address_id" validate:"required"`
	CouponCode        *string     `json:"coupon_code,omitempty" validate:"omitempty,max=40"`
}

// Result carries the placed order and the Stripe client secret for payment.
type Result struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret"`
}
