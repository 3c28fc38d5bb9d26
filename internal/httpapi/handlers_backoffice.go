package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"novapos/internal/domain"
)

func (a *API) handleListProducts(c *gin.Context) {
	includeDrafts, _ := strconv.ParseBool(c.Query("include_drafts"))
	products, err := a.service.ListProducts(c.Request.Context(), includeDrafts)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (a *API) handleGetProduct(c *gin.Context) {
	product, err := a.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (a *API) handleCreateProduct(c *gin.Context) {
	var req domain.ProductSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := a.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (a *API) handleUpdateProduct(c *gin.Context) {
	var req domain.ProductSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := a.service.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (a *API) handleDeleteProduct(c *gin.Context) {
	if err := a.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleListUsers(c *gin.Context) {
	users, err := a.service.ListUsers(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *API) handleCreateUser(c *gin.Context) {
	var req domain.UserSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (a *API) handleUpdateUser(c *gin.Context) {
	var req domain.UserSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.service.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *API) handleDeleteUser(c *gin.Context) {
	if err := a.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleListClients(c *gin.Context) {
	clients, err := a.service.ListClients(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (a *API) handleGetClient(c *gin.Context) {
	client, err := a.service.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// handleSaveClient serves both create (POST) and update (PUT /:id).
func (a *API) handleSaveClient(c *gin.Context) {
	var req domain.ClientSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := a.service.SaveClient(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(savedStatus(c), gin.H{"client": client})
}

func (a *API) handleDeleteClient(c *gin.Context) {
	if err := a.service.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleListBranches(c *gin.Context) {
	branches, err := a.service.ListBranches(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

func (a *API) handleSaveBranch(c *gin.Context) {
	var req domain.BranchSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	branch, err := a.service.SaveBranch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(savedStatus(c), gin.H{"branch": branch})
}

func (a *API) handleDeleteBranch(c *gin.Context) {
	if err := a.service.DeleteBranch(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleListRegisters(c *gin.Context) {
	registers, err := a.service.ListRegisters(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registers": registers})
}

func (a *API) handleSaveRegister(c *gin.Context) {
	var req domain.CashRegisterSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	register, err := a.service.SaveRegister(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(savedStatus(c), gin.H{"register": register})
}

func (a *API) handleDeleteRegister(c *gin.Context) {
	if err := a.service.DeleteRegister(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleAuditLogs(c *gin.Context) {
	limit := parsePositiveLimit(c.Query("limit"), 100, 500)
	logs, err := a.service.ListAuditLogs(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}

func savedStatus(c *gin.Context) int {
	if c.Request.Method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}
