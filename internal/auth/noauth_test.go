package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"accounts-service/internal/account"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoAuthLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	opts := testOptions()

	_, err := opts.Directory.Create(context.Background(), &account.Account{ID: "dev-account"})
	require.NoError(t, err)

	strategy := NewNoAuthStrategy(opts, "", "dev-account")
	assert.Equal(t, "nothing", strategy.Method())

	router := gin.New()
	strategy.Install(router, "/api/accounts/nothing")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/accounts/nothing/login.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged in via nothing")
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestNoAuthLoginUnknownAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	strategy := NewNoAuthStrategy(testOptions(), "", "missing")

	router := gin.New()
	strategy.Install(router, "/api/accounts/nothing")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/accounts/nothing/login.json", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed")
}
