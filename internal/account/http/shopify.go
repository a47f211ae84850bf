package http

import (
	"errors"
	"net/http"

	"github.com/loopline/accountd/internal/account/shopify"
	"github.com/loopline/accountd/pkg/httpx"
	"github.com/loopline/accountd/pkg/slogx"
)

type ShopifyHandler struct {
	Client *shopify.Client
}

type authorizationURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// HandleAuthURL builds the per-shop OAuth authorize URL. The shop domain
// comes in as a query parameter.
func (h *ShopifyHandler) HandleAuthURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := userFromContext(ctx); !ok {
		writeUnauthorized(w)
		return
	}

	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeValidationError(w, map[string]string{"shop": "this field is required"})
		return
	}

	authURL, _, err := h.Client.AuthorizationURL(shop)
	if err != nil {
		if errors.Is(err, shopify.ErrBadShop) {
			writeValidationError(w, map[string]string{"shop": "must be a *.myshopify.com domain"})
			return
		}
		slogx.FromContext(ctx).Error("authorization url failed", "shop", shop, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authorizationURLResponse{AuthorizationURL: authURL})
}

// HandleConfirmation verifies the callback signature and exchanges the code
// for the shop's access token.
func (h *ShopifyHandler) HandleConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if _, ok := userFromContext(ctx); !ok {
		writeUnauthorized(w)
		return
	}

	var params shopify.ConfirmationParams
	if !decodeAndValidate(w, r, &params) {
		return
	}

	if err := h.Client.VerifyHMAC(params); err != nil {
		writeValidationError(w, map[string]string{"hmac": "signature verification failed"})
		return
	}

	token, err := h.Client.ExchangeCode(ctx, params.Shop, params.Code)
	if err != nil {
		if errors.Is(err, shopify.ErrBadShop) {
			writeValidationError(w, map[string]string{"shop": "must be a *.myshopify.com domain"})
			return
		}
		log.Error("shopify code exchange failed", "shop", params.Shop, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}
