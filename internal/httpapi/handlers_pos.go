package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"novapos/internal/domain"
	"novapos/internal/service"
)

func (a *API) handleLogin(c *gin.Context) {
	if !a.loginLimiter.Allow(c.ClientIP()) {
		writeError(c, http.StatusTooManyRequests, fmt.Errorf("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := a.service.Validate(req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(c.Request.Context(), req)
	if err != nil {
		if isAuthError(err) {
			writeError(c, http.StatusUnauthorized, err)
			return
		}
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func isAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInactiveAccount) ||
		errors.Is(err, ErrUnknownBranch) ||
		errors.Is(err, ErrBranchRequired)
}

func (a *API) handleMe(c *gin.Context) {
	actor, _ := service.ActorFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"user_id":  actor.UserID,
		"username": actor.Username,
		"name":     actor.Name,
		"role":     actor.Role,
		"branch":   actor.Branch,
	})
}

func (a *API) handleGetCart(c *gin.Context) {
	c.JSON(http.StatusOK, a.service.Cart())
}

func (a *API) handleClearCart(c *gin.Context) {
	res, err := a.service.ClearCart(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) handleAddCartItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		writeError(c, http.StatusBadRequest, fmt.Errorf("product_id required"))
		return
	}

	res, err := a.service.AddToCart(c.Request.Context(), req.ProductID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) handleUpdateCartItem(c *gin.Context) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !bindJSON(c, &req) {
		return
	}

	res, err := a.service.UpdateCartQuantity(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) handleRemoveCartItem(c *gin.Context) {
	res, err := a.service.RemoveFromCart(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) handleAnalyze(c *gin.Context) {
	var req struct {
		CustomerName string `json:"customer_name"`
	}
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	suggestion, err := a.service.Analyze(c.Request.Context(), req.CustomerName)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (a *API) handleCheckout(c *gin.Context) {
	var req domain.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := a.service.Checkout(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sale": sale})
}

func (a *API) handleStartQR(c *gin.Context) {
	var req domain.QRPaymentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	status, err := a.service.StartQRPayment(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, status)
}

func (a *API) handleQRStatus(c *gin.Context) {
	status, err := a.service.QRStatus()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (a *API) handleCancelQR(c *gin.Context) {
	status, err := a.service.CancelQR()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (a *API) handleListSales(c *gin.Context) {
	sales := a.service.ListSales(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

func (a *API) handleGetSale(c *gin.Context) {
	sale, err := a.service.GetSale(c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale})
}

func (a *API) handleSaleReceipt(c *gin.Context) {
	text, err := a.service.SaleReceipt(c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (a *API) handleDeleteSale(c *gin.Context) {
	if err := a.service.DeleteSale(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleZReport(c *gin.Context) {
	c.JSON(http.StatusOK, a.service.ZReport())
}

func (a *API) handleZReportPDF(c *gin.Context) {
	var buf bytes.Buffer
	if err := a.service.WriteZReportPDF(&buf); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="z-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (a *API) handleCloseDay(c *gin.Context) {
	report, removed, err := a.service.CloseDay(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "removed": removed})
}

func (a *API) handleListSessions(c *gin.Context) {
	sessions, err := a.service.ListSessions(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (a *API) handleOpenSession(c *gin.Context) {
	var req domain.SessionOpenRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := a.service.OpenSession(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (a *API) handleCloseSession(c *gin.Context) {
	var req domain.SessionCloseRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := a.service.CloseSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (a *API) handleOpenAllRegisters(c *gin.Context) {
	opened, err := a.service.OpenAllRegisters(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opened": opened})
}
