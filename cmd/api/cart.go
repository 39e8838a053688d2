package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carshop/internal/domain/cart"
	"carshop/internal/domain/coupon"
	"carshop/internal/domain/pricing"
	"carshop/internal/upstream"
)

type CartView struct {
	Items   []cart.Line     `json:"items"`
	Coupon  *coupon.Coupon  `json:"coupon,omitempty"`
	Summary pricing.Summary `json:"summary"`
}

type AddCartItemPayload struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemPayload struct {
	Quantity int `json:"quantity"`
}

// getCartHandler godoc
//
//	@Summary		Get the cart
//	@Description	Returns the cart lines with a freshly computed pricing summary
//	@Tags			cart
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	CartView
//	@Failure		401	{object}	map[string]any
//	@Router			/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	profile := getProfileFromContext(r)

	lines, err := app.carts.Lines(r.Context(), profile)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	view := app.cartView(profile, lines)
	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// addCartItemHandler godoc
//
//	@Summary		Add a product to the cart
//	@Description	Fetches the product from the catalog and adds the requested quantity, capped by live stock
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		AddCartItemPayload	true	"Product and quantity"
//	@Success		200		{object}	CartView
//	@Failure		400		{object}	map[string]any
//	@Failure		404		{object}	map[string]any
//	@Failure		409		{object}	map[string]any	"Not enough stock"
//	@Router			/cart/items [post]
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var payload AddCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	rec, err := app.shop.Catalog.Product(r.Context(), payload.ProductID)
	if err != nil {
		if errors.Is(err, upstream.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	profile := getProfileFromContext(r)
	if err := app.carts.AddItem(r.Context(), profile, rec.CartProduct(), payload.Quantity); err != nil {
		app.cartMutationError(w, r, err)
		return
	}

	app.respondWithCart(w, r, profile)
}

// updateCartItemHandler godoc
//
//	@Summary		Change a line's quantity
//	@Description	Sets the quantity for a cart line; zero or less removes the line
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			productID	path		int						true	"Product ID"
//	@Param			payload		body		UpdateCartItemPayload	true	"New quantity"
//	@Success		200			{object}	CartView
//	@Failure		404			{object}	map[string]any
//	@Failure		409			{object}	map[string]any	"Not enough stock"
//	@Router			/cart/items/{productID} [patch]
func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid product ID"))
		return
	}

	var payload UpdateCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	profile := getProfileFromContext(r)
	if err := app.carts.UpdateQuantity(r.Context(), profile, productID, payload.Quantity); err != nil {
		app.cartMutationError(w, r, err)
		return
	}

	app.respondWithCart(w, r, profile)
}

// removeCartItemHandler godoc
//
//	@Summary		Remove a line
//	@Description	Removes the product's line; removing a line that is not there is a no-op
//	@Tags			cart
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	CartView
//	@Router			/cart/items/{productID} [delete]
func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid product ID"))
		return
	}

	profile := getProfileFromContext(r)
	if err := app.carts.RemoveItem(r.Context(), profile, productID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.respondWithCart(w, r, profile)
}

// clearCartHandler godoc
//
//	@Summary		Empty the cart
//	@Tags			cart
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	CartView
//	@Router			/cart [delete]
func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	profile := getProfileFromContext(r)
	if err := app.carts.Clear(r.Context(), profile); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.coupons.Discard(profile)

	app.respondWithCart(w, r, profile)
}

func (app *application) cartView(profile string, lines []cart.Line) CartView {
	active := app.coupons.Active(profile)
	return CartView{
		Items:   lines,
		Coupon:  active,
		Summary: app.pricer.Totals(lines, active),
	}
}

func (app *application) respondWithCart(w http.ResponseWriter, r *http.Request, profile string) {
	lines, err := app.carts.Lines(r.Context(), profile)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, app.cartView(profile, lines)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cartMutationError maps store errors: stock violations are conflicts, bad
// quantities are bad requests, everything else is a 500.
func (app *application) cartMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *cart.StockError
	switch {
	case errors.As(err, &stockErr), errors.Is(err, cart.ErrOutOfStock):
		app.conflictResponse(w, r, err)
	case errors.Is(err, cart.ErrInvalidQuantity):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, cart.ErrLineNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
