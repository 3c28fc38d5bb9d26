// Package httpapi exposes the point-of-sale engine and the back-office
// service as a JSON API on gin.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"novapos/internal/domain"
	"novapos/internal/pos"
	"novapos/internal/service"
	"novapos/internal/store"
)

const maxBodyBytes = 1 << 20

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func (a *API) Handler() http.Handler {
	r := gin.New()
	r.Use(requestLogger(), recovery(), securityHeaders(), limitBody())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{a.allowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", a.handleHealth)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", a.handleLogin)
	v1.GET("/branches", a.handleListBranches)

	staff := v1.Group("", a.requireAuth(domain.RoleCashier, domain.RoleAdmin))
	{
		staff.GET("/auth/me", a.handleMe)

		staff.GET("/products", a.handleListProducts)
		staff.GET("/products/:id", a.handleGetProduct)

		staff.GET("/cart", a.handleGetCart)
		staff.DELETE("/cart", a.handleClearCart)
		staff.POST("/cart/items", a.handleAddCartItem)
		staff.PATCH("/cart/items/:id", a.handleUpdateCartItem)
		staff.DELETE("/cart/items/:id", a.handleRemoveCartItem)
		staff.POST("/cart/analyze", a.handleAnalyze)

		staff.POST("/checkout", a.handleCheckout)
		staff.POST("/checkout/qr", a.handleStartQR)
		staff.GET("/checkout/qr", a.handleQRStatus)
		staff.DELETE("/checkout/qr", a.handleCancelQR)

		staff.GET("/sales", a.handleListSales)
		staff.GET("/sales/:id", a.handleGetSale)
		staff.GET("/sales/:id/receipt", a.handleSaleReceipt)

		staff.GET("/reports/z", a.handleZReport)
		staff.GET("/reports/z.pdf", a.handleZReportPDF)

		staff.GET("/clients", a.handleListClients)
		staff.POST("/clients", a.handleSaveClient)
		staff.GET("/clients/:id", a.handleGetClient)
		staff.PUT("/clients/:id", a.handleSaveClient)

		staff.GET("/registers", a.handleListRegisters)
		staff.GET("/sessions", a.handleListSessions)
		staff.POST("/sessions", a.handleOpenSession)
		staff.POST("/sessions/:id/close", a.handleCloseSession)
	}

	admin := v1.Group("", a.requireAuth(domain.RoleAdmin))
	{
		admin.POST("/products", a.handleCreateProduct)
		admin.PUT("/products/:id", a.handleUpdateProduct)
		admin.DELETE("/products/:id", a.handleDeleteProduct)

		admin.DELETE("/sales/:id", a.handleDeleteSale)
		admin.POST("/reports/z/close", a.handleCloseDay)

		admin.GET("/users", a.handleListUsers)
		admin.POST("/users", a.handleCreateUser)
		admin.PUT("/users/:id", a.handleUpdateUser)
		admin.DELETE("/users/:id", a.handleDeleteUser)

		admin.DELETE("/clients/:id", a.handleDeleteClient)

		admin.POST("/branches", a.handleSaveBranch)
		admin.PUT("/branches/:id", a.handleSaveBranch)
		admin.DELETE("/branches/:id", a.handleDeleteBranch)

		admin.POST("/registers", a.handleSaveRegister)
		admin.PUT("/registers/:id", a.handleSaveRegister)
		admin.DELETE("/registers/:id", a.handleDeleteRegister)
		admin.POST("/registers/open-all", a.handleOpenAllRegisters)

		admin.GET("/audit-logs", a.handleAuditLogs)
	}

	return r
}

func (a *API) requireAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(c, http.StatusUnauthorized, errors.New("missing bearer token"))
			c.Abort()
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(c, http.StatusForbidden, errors.New("forbidden role"))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Next()
		log.Info().
			Str("component", "http").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(startedAt)).
			Msg("request")
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Str("component", "http").Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("panic recovered")
		writeError(c, http.StatusInternalServerError, fmt.Errorf("panic: %v", recovered))
		c.Abort()
	})
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Next()
	}
}

func limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}
		c.Next()
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps domain and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalid),
		errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrInvalidPayment),
		errors.Is(err, pos.ErrInvalidCommand):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, pos.ErrCheckoutPending),
		errors.Is(err, pos.ErrRegisterOpen),
		errors.Is(err, pos.ErrSessionClosed),
		errors.Is(err, pos.ErrQRCancelled):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, pos.ErrBranchMismatch):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(c *gin.Context, dest any) error {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// bindJSON decodes the body and writes a 400 on failure.
func bindJSON(c *gin.Context, dest any) bool {
	if err := decodeJSON(c, dest); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	return true
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeServiceError(c *gin.Context, err error) {
	writeError(c, statusFor(err), err)
}

func writeError(c *gin.Context, status int, err error) {
	// 5xx bodies never carry internal details.
	msg := err.Error()
	if status >= 500 {
		log.Error().Err(err).Str("component", "http").Int("status", status).Str("path", c.Request.URL.Path).Msg("internal error")
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}
