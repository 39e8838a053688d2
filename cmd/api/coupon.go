package main

import (
	"errors"
	"net/http"

	"carshop/internal/domain/coupon"
	"carshop/internal/upstream"
)

type ApplyCouponPayload struct {
	Code string `json:"code" validate:"required,max=40"`
}

// applyCouponHandler godoc
//
//	@Summary		Apply a discount coupon
//	@Description	Validates the code against the coupon service and makes it the session's active coupon, replacing any previous one
//	@Tags			coupons
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		ApplyCouponPayload	true	"Coupon code"
//	@Success		200		{object}	CartView
//	@Failure		400		{object}	map[string]any	"Invalid, expired or used-up coupon"
//	@Failure		401		{object}	map[string]any
//	@Router			/cart/coupon [post]
func (app *application) applyCouponHandler(w http.ResponseWriter, r *http.Request) {
	var payload ApplyCouponPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	profile := getProfileFromContext(r)
	if _, err := app.coupons.Apply(r.Context(), profile, payload.Code); err != nil {
		switch {
		case errors.Is(err, coupon.ErrEmptyCode),
			errors.Is(err, coupon.ErrInvalidCoupon),
			errors.Is(err, coupon.ErrExpired),
			errors.Is(err, coupon.ErrUsageLimitReached):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, upstream.ErrAuthExpired):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.respondWithCart(w, r, profile)
}

// removeCouponHandler godoc
//
//	@Summary		Drop the active coupon
//	@Tags			coupons
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	CartView
//	@Router			/cart/coupon [delete]
func (app *application) removeCouponHandler(w http.ResponseWriter, r *http.Request) {
	profile := getProfileFromContext(r)
	app.coupons.Discard(profile)

	app.respondWithCart(w, r, profile)
}
