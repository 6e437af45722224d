// Package handler mounts the account/authentication HTTP API.
package handler

import (
	"net/http"
	"strings"

	"accounts-service/internal/account"
	"accounts-service/internal/audit"
	"accounts-service/internal/auth"
	"accounts-service/internal/fields"
	"accounts-service/internal/middleware"
	"accounts-service/internal/session"
	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
)

// DefaultPrefix is where the API mounts unless configured otherwise.
const DefaultPrefix = "/api/accounts"

// Handler serves the accounts API and mounts every registered strategy
// under {prefix}/{method}/.
type Handler struct {
	prefix     string
	registry   *auth.Registry
	directory  account.Directory
	fieldSet   fields.Set
	env        *fields.Env
	sessions   *session.Manager
	sink       audit.Sink
	adminRoles map[string]bool
	searchMeta *account.SearchMeta
}

// Options configure the handler.
type Options struct {
	Prefix     string
	Registry   *auth.Registry
	Directory  account.Directory
	Fields     fields.Set
	Env        *fields.Env
	Sessions   *session.Manager
	Audit      audit.Sink
	AdminRoles map[string]bool
	SearchMeta *account.SearchMeta
}

// New creates the handler. A password field is added to the field set
// whenever a registered method uses passwords, mirroring the methods
// descriptor clients see.
func New(opts Options) *Handler {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Audit == nil {
		opts.Audit = audit.Discard{}
	}
	if opts.Fields == nil {
		opts.Fields = fields.Defaults()
	}
	if opts.SearchMeta == nil {
		opts.SearchMeta = &account.SearchMeta{
			Fields: map[string]account.SearchField{
				account.FieldDisplayName: {Filters: []string{"match", "equals", "regex"}},
				account.FieldCredentials: {Filters: []string{"match", "equals"}},
			},
			Limit: account.LimitMeta{Default: 20, Minimum: 1, Maximum: 100},
			Sort:  []string{account.FieldID, account.FieldDisplayName},
		}
	}

	for _, d := range opts.Registry.Descriptions() {
		if d.UsesPassword {
			if _, ok := opts.Fields[account.FieldPassword]; !ok {
				opts.Fields[account.FieldPassword] = fields.NewPassword()
			}
		}
	}

	return &Handler{
		prefix:     opts.Prefix,
		registry:   opts.Registry,
		directory:  opts.Directory,
		fieldSet:   opts.Fields,
		env:        opts.Env,
		sessions:   opts.Sessions,
		sink:       opts.Audit,
		adminRoles: opts.AdminRoles,
		searchMeta: opts.SearchMeta,
	}
}

// RegisterRoutes mounts the API. Admin routes use the reserved :user
// parameter; the .json suffix is required and static routes win over it.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	grp := r.Group(h.prefix)
	grp.Use(middleware.Attach(h.sessions, h.directory))

	descriptors := h.registry.Descriptions()
	fieldSummaries := h.fieldSet.Summaries()

	grp.GET("/methods.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, descriptors)
	})
	grp.GET("/fields.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, fieldSummaries)
	})

	grp.GET("/current.json", h.currentGet)
	grp.PUT("/current.json", middleware.RequireAccount(), h.currentPut)
	grp.Any("/logout.json", h.logout)

	admin := middleware.RequireRole(h.adminRoles, h.sink)
	grp.Any("/search.json", admin, h.search)
	grp.POST("/:user", admin, h.createAccount)
	grp.GET("/:user", admin, h.readAccount)
	grp.PUT("/:user", admin, h.updateAccount)
	grp.DELETE("/:user", admin, h.deleteAccount)

	for _, s := range h.registry.All() {
		s.Install(r, h.prefix+"/"+s.Method())
	}
}

// userParam extracts the :user route parameter, requiring the .json
// suffix express-style routes carried.
func userParam(c *gin.Context) (string, bool) {
	id, ok := strings.CutSuffix(c.Param("user"), ".json")
	if !ok || id == "" {
		c.Status(http.StatusNotFound)
		return "", false
	}
	return id, true
}

func (h *Handler) source(c *gin.Context) string {
	id := ""
	if a := middleware.CurrentAccount(c); a != nil {
		id = a.ID
	}
	return audit.FormatSource(id, c.ClientIP())
}

func (h *Handler) logout(c *gin.Context) {
	h.sink.Audit(h.source(c), audit.Logout, "Logged out")
	h.sessions.Destroy(c.Request.Context(), c.Writer, c.Request)
	web.Success(c, "Logged out")
}
