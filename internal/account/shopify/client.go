package shopify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/loopline/accountd/pkg/cryptox"
)

var (
	// ErrBadHMAC means the confirmation parameters were not signed by the
	// shop's shared secret.
	ErrBadHMAC = errors.New("shopify: hmac verification failed")

	// ErrBadShop means the shop parameter is not a *.myshopify.com domain.
	ErrBadShop = errors.New("shopify: invalid shop domain")
)

// Config carries the Shopify app credentials.
type Config struct {
	APIKey      string
	APISecret   string
	Scopes      string
	RedirectURI string
}

// Client drives the Shopify OAuth handshake: it builds per-shop
// authorization URLs and exchanges confirmation codes for shop access
// tokens.
type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizationURL returns the shop's OAuth authorize URL plus the state
// nonce embedded in it. The caller echoes the nonce back on confirmation.
func (c *Client) AuthorizationURL(shop string) (authURL, state string, err error) {
	if !validShopDomain(shop) {
		return "", "", ErrBadShop
	}

	state, err = cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", "", fmt.Errorf("shopify: state nonce: %w", err)
	}

	q := url.Values{}
	q.Set("client_id", c.cfg.APIKey)
	q.Set("scope", c.cfg.Scopes)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)

	u := url.URL{
		Scheme:   "https",
		Host:     shop,
		Path:     "/admin/oauth/authorize",
		RawQuery: q.Encode(),
	}
	return u.String(), state, nil
}

// ConfirmationParams are the query parameters Shopify appends to the
// redirect back to the app.
type ConfirmationParams struct {
	Shop      string `json:"shop" validate:"required"`
	Code      string `json:"code" validate:"required"`
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
	HMAC      string `json:"hmac" validate:"required"`
}

// VerifyHMAC checks the redirect signature: all parameters except hmac,
// sorted and joined key=value with '&', signed with the app secret.
func (c *Client) VerifyHMAC(p ConfirmationParams) error {
	params := map[string]string{
		"shop":      p.Shop,
		"code":      p.Code,
		"state":     p.State,
		"timestamp": p.Timestamp,
	}

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	message := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(p.HMAC))) {
		return ErrBadHMAC
	}
	return nil
}

// ExchangeCode trades a confirmation code for the shop's permanent access
// token. The HMAC must be verified before calling this.
func (c *Client) ExchangeCode(ctx context.Context, shop, code string) (string, error) {
	if !validShopDomain(shop) {
		return "", ErrBadShop
	}

	payload, err := json.Marshal(map[string]string{
		"client_id":     c.cfg.APIKey,
		"client_secret": c.cfg.APISecret,
		"code":          code,
	})
	if err != nil {
		return "", err
	}

	endpoint := "https://" + shop + "/admin/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("shopify: token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("shopify: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("shopify: token endpoint responded %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("shopify: token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("shopify: empty access token in response")
	}
	return body.AccessToken, nil
}

// validShopDomain accepts only {name}.myshopify.com hosts so the exchange
// request cannot be pointed at an arbitrary server.
func validShopDomain(shop string) bool {
	name, ok := strings.CutSuffix(shop, ".myshopify.com")
	if !ok || name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
