package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"accounts-service/internal/account"
	"accounts-service/internal/audit"
	"accounts-service/internal/middleware"
	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
)

// currentGet returns the logged-in account's summary, or a bare false
// for anonymous callers so clients can poll it without error handling.
func (h *Handler) currentGet(c *gin.Context) {
	a := middleware.CurrentAccount(c)
	if a == nil {
		c.JSON(http.StatusOK, false)
		return
	}
	c.JSON(http.StatusOK, h.fieldSet.SummarizeAccount(a, nil))
}

// currentPut lets an account edit its own fields through the field
// policies. Requires a session.
func (h *Handler) currentPut(c *gin.Context) {
	a := middleware.CurrentAccount(c)

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		web.Error(c, "invalid request body")
		return
	}

	if err := h.fieldSet.ApplyUpdate(a, updates, a, h.env); err != nil {
		h.sink.Audit(h.source(c), audit.AccountChange+audit.Failure, err.Error())
		web.Error(c, err.Error())
		return
	}
	if err := h.directory.Update(c.Request.Context(), a); err != nil {
		web.Error(c, err.Error())
		return
	}

	detail, _ := json.Marshal(updates)
	h.sink.Audit(h.source(c), audit.AccountChange, string(detail))
	web.Success(c, "Account details changed")
}

func (h *Handler) search(c *gin.Context) {
	q := account.ParseQuery(h.searchMeta, c.Request.URL.Query())

	result, err := h.directory.Search(c.Request.Context(), q)
	if err != nil {
		web.Error(c, err.Error())
		return
	}

	include := map[string]bool{account.FieldCredentials: true}
	matches := make([]map[string]any, 0, len(result.Matches))
	for _, a := range result.Matches {
		matches = append(matches, h.fieldSet.SummarizeAccount(a, include))
	}

	detail, _ := json.Marshal(q)
	h.sink.Audit(h.source(c), audit.AccountSearch, string(detail))
	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"total":   result.Total,
	})
}

// createAccount provisions an account from a credential, delegating to
// the strategy of the requested method. The route id is ignored; the
// new account always gets a generated id.
func (h *Handler) createAccount(c *gin.Context) {
	if _, ok := userParam(c); !ok {
		return
	}

	var body struct {
		Type  string         `json:"type"`
		Value string         `json:"value"`
		Extra map[string]any `json:"extra"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		web.Error(c, "invalid request body")
		return
	}

	strategy, err := h.registry.Get(body.Type)
	if err != nil {
		web.Error(c, err.Error())
		return
	}

	profile, err := strategy.ProfileFromCredential(body.Value, body.Extra)
	if err != nil {
		web.Error(c, err.Error())
		return
	}

	created, err := h.directory.Create(c.Request.Context(), strategy.ProvisionFromProfile(profile))
	if err != nil {
		h.sink.Audit(h.source(c), audit.AccountCreate+audit.Failure, err.Error())
		if errors.Is(err, account.ErrAccountExists) {
			web.Error(c, "Account creation failed")
			return
		}
		web.Error(c, err.Error())
		return
	}

	detail, _ := json.Marshal(map[string]any{"id": created.ID, "method": body.Type, "credential": body.Value})
	h.sink.Audit(h.source(c), audit.AccountCreate, string(detail))
	c.JSON(http.StatusOK, h.fieldSet.SummarizeAccount(created, map[string]bool{account.FieldCredentials: true}))
}

func (h *Handler) readAccount(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}

	a, err := h.directory.Read(c.Request.Context(), id)
	if err != nil {
		web.Error(c, err.Error())
		return
	}

	h.sink.Audit(h.source(c), audit.AccountRead, id)
	c.JSON(http.StatusOK, h.fieldSet.SummarizeAccount(a, map[string]bool{account.FieldCredentials: true}))
}

// updateAccount edits another account's fields through the same policies
// as self-service updates, with the caller as acting user. Admins editing
// their own record still hit the Self restrictions, so an admin cannot
// grant themselves roles.
func (h *Handler) updateAccount(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		web.Error(c, "invalid request body")
		return
	}

	a, err := h.directory.Read(c.Request.Context(), id)
	if err != nil {
		web.Error(c, err.Error())
		return
	}

	acting := middleware.CurrentAccount(c)
	if err := h.fieldSet.ApplyUpdate(a, updates, acting, h.env); err != nil {
		h.sink.Audit(h.source(c), audit.AccountUpdate+audit.Failure, id, err.Error())
		web.Error(c, err.Error())
		return
	}
	if err := h.directory.Update(c.Request.Context(), a); err != nil {
		web.Error(c, err.Error())
		return
	}

	detail, _ := json.Marshal(updates)
	h.sink.Audit(h.source(c), audit.AccountUpdate, id, string(detail))
	web.Success(c, "Done")
}

func (h *Handler) deleteAccount(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}

	if acting := middleware.CurrentAccount(c); acting != nil && acting.ID == id {
		web.Error(c, "Can't delete yourself")
		return
	}

	if err := h.directory.Delete(c.Request.Context(), id); err != nil {
		web.Error(c, err.Error())
		return
	}

	h.sink.Audit(h.source(c), audit.AccountDelete, id)
	web.Success(c, "Done")
}
