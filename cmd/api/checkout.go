package main

import (
	"errors"
	"net/http"

	"carshop/internal/domain/checkout"
	"carshop/internal/upstream"
)

type CheckoutFailure struct {
	Reason     string                    `json:"reason"`
	Fields     []string                  `json:"fields,omitempty"`
	Shortfalls []checkout.StockShortfall `json:"shortfalls,omitempty"`
	ItemErrors []string                  `json:"item_errors,omitempty"`
}

// checkoutHandler godoc
//
//	@Summary		Submit the cart as an order
//	@Description	Re-validates stock for every line, submits the order once, and clears the cart only on confirmed success
//	@Tags			checkout
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		201	{object}	checkout.Receipt
//	@Failure		400	{object}	CheckoutFailure	"Empty cart or unmet precondition"
//	@Failure		401	{object}	map[string]any
//	@Failure		409	{object}	CheckoutFailure	"Stock shortfall or order rejected"
//	@Router			/checkout [post]
func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	profile := getProfileFromContext(r)

	receipt, err := app.checkout.Run(r.Context(), profile)
	if err != nil {
		app.checkoutError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, receipt); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		preErr   *checkout.PreconditionError
		stockErr *checkout.StockShortfallError
		rejErr   *upstream.RejectedError
	)

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		app.badRequestResponse(w, r, err)
	case errors.As(err, &preErr):
		app.logger.Warnw("checkout precondition failed", "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusBadRequest, CheckoutFailure{
			Reason: preErr.Requirement,
			Fields: preErr.Fields,
		})
	case errors.As(err, &stockErr):
		app.logger.Warnw("checkout stock shortfall", "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusConflict, CheckoutFailure{
			Reason:     "insufficient_stock",
			Shortfalls: stockErr.Shortfalls,
		})
	case errors.As(err, &rejErr):
		app.logger.Warnw("order rejected", "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusConflict, CheckoutFailure{
			Reason:     "order_rejected",
			ItemErrors: rejErr.ItemErrors,
		})
	case errors.Is(err, upstream.ErrAuthExpired):
		app.unauthorizedErrorResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
