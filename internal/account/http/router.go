package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/loopline/accountd/internal/account/notify"
	"github.com/loopline/accountd/internal/account/service"
	"github.com/loopline/accountd/internal/account/shopify"
	"github.com/loopline/accountd/internal/account/store"
	"github.com/loopline/accountd/pkg/httpx"
	"github.com/loopline/accountd/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	UserService              *service.UserService
	ResetService             *service.PasswordResetService
	EmailConfirmationService *service.EmailConfirmationService

	Mailer        notify.Mailer
	SMSSender     notify.SMSSender
	ShopifyClient *shopify.Client
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerAuth()
	r.registerPasswordReset()
	r.registerEmailConfirmation()
	r.registerMessaging()
	r.registerShopify()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		UserService:              r.UserService,
		EmailConfirmationService: r.EmailConfirmationService,
	}

	// POST /users - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /users",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	auth := requireAuth(r.UserService)

	r.Mux.Handle("GET /user",
		httpx.Chain(http.HandlerFunc(h.HandleShow),
			auth,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /user",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /user",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// PUT /user/password - credential change, strict limit
	r.Mux.Handle("PUT /user/password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			auth,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAuth() {
	h := &TokenHandler{UserService: r.UserService}

	// POST /auth/token - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /auth/token",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{ResetService: r.ResetService}

	r.Mux.Handle("POST /user/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("PATCH /user/password/reset/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /user/password/reset/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerEmailConfirmation() {
	h := &EmailConfirmationHandler{ConfirmationService: r.EmailConfirmationService}
	auth := requireAuth(r.UserService)

	r.Mux.Handle("POST /user/email-confirmation",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PATCH /user/email-confirmation",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMessaging() {
	smsHandler := &SMSHandler{Sender: r.SMSSender}
	mailHandler := &MailHandler{Mailer: r.Mailer}
	auth := requireAuth(r.UserService)

	r.Mux.Handle("POST /sms",
		httpx.Chain(http.HandlerFunc(smsHandler.HandleSend),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Gateway callback is unauthenticated; the gateway only posts receipts.
	r.Mux.Handle("POST /dlr",
		httpx.Chain(http.HandlerFunc(smsHandler.HandleDeliveryReceipt),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /mail",
		httpx.Chain(http.HandlerFunc(mailHandler.HandleSend),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerShopify() {
	h := &ShopifyHandler{Client: r.ShopifyClient}
	auth := requireAuth(r.UserService)

	r.Mux.Handle("GET /integrations/shopify/auth-url",
		httpx.Chain(http.HandlerFunc(h.HandleAuthURL),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /integrations/shopify/confirmation",
		httpx.Chain(http.HandlerFunc(h.HandleConfirmation),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
