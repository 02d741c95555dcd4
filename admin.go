package guardkit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminAPI exposes the management surface as a JSON router for an
// administrative client: role CRUD, permission catalog maintenance,
// permission-set replacement, and the audit log. Authorization is not
// re-implemented here; the middleware builds the AuthContext and the
// Service enforces its own gates, so the handlers only translate
// between HTTP and the service.
type AdminAPI struct {
	service *Service
	mw      *Middleware
	logger  *slog.Logger
}

// NewAdminAPI creates the administrative API surface.
func NewAdminAPI(service *Service, mw *Middleware, logger *slog.Logger) *AdminAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminAPI{service: service, mw: mw, logger: logger}
}

// Router builds the chi router for the management API.
func (api *AdminAPI) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(api.mw.Authenticate())

	r.Route("/roles", func(r chi.Router) {
		r.Get("/", api.listRoles)
		r.Post("/", api.createRole)
		r.Get("/{name}", api.getRole)
		r.Patch("/{name}", api.updateRole)
		r.Delete("/{name}", api.deleteRole)
		r.Get("/{name}/permissions", api.rolePermissions)
		r.Put("/{name}/permissions", api.replaceRolePermissions)
	})

	r.Route("/permissions", func(r chi.Router) {
		r.Get("/", api.listPermissions)
		r.Post("/", api.createPermission)
		r.Delete("/{key}", api.deletePermission)
	})

	r.Post("/principals/{id}/role", api.assignPrincipalRole)
	r.Get("/audit", api.auditLog)

	return r
}

// requestID propagates the caller's X-Request-ID into the context for
// audit correlation, minting one when the header is absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

type roleRequest struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type roleUpdateRequest struct {
	Label       *string `json:"label"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type permissionRequest struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type permissionSetRequest struct {
	Permissions []string `json:"permissions"`
}

type assignRoleRequest struct {
	CurrentRole   string `json:"current_role"`
	RequestedRole string `json:"requested_role"`
}

type errorResponse struct {
	Error       string   `json:"error"`
	MissingKeys []string `json:"missing_keys,omitempty"`
}

func (api *AdminAPI) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := api.service.ListRoles(r.Context())
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, roles)
}

func (api *AdminAPI) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !api.decode(w, r, &req) {
		return
	}
	role, err := api.service.CreateRole(r.Context(), req.Name, req.Label, req.Description, req.Permissions)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, role)
}

func (api *AdminAPI) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := api.service.GetRole(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, role)
}

func (api *AdminAPI) updateRole(w http.ResponseWriter, r *http.Request) {
	var req roleUpdateRequest
	if !api.decode(w, r, &req) {
		return
	}
	update := RoleUpdate{
		Label:       req.Label,
		Description: req.Description,
	}
	if req.Status != nil {
		status := RoleStatus(*req.Status)
		update.Status = &status
	}
	role, err := api.service.UpdateRoleDetails(r.Context(), chi.URLParam(r, "name"), update)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, role)
}

func (api *AdminAPI) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := api.service.DeleteRole(r.Context(), chi.URLParam(r, "name")); err != nil {
		api.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) rolePermissions(w http.ResponseWriter, r *http.Request) {
	set, err := api.service.RolePermissions(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string][]string{"permissions": set.Keys()})
}

func (api *AdminAPI) replaceRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req permissionSetRequest
	if !api.decode(w, r, &req) {
		return
	}
	role, err := api.service.UpdateRolePermissions(r.Context(), chi.URLParam(r, "name"), req.Permissions)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, role)
}

func (api *AdminAPI) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := api.service.ListPermissions(r.Context())
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, perms)
}

func (api *AdminAPI) createPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if !api.decode(w, r, &req) {
		return
	}
	perm, err := api.service.CreatePermission(r.Context(), req.Key, req.Label, req.Description)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, perm)
}

func (api *AdminAPI) deletePermission(w http.ResponseWriter, r *http.Request) {
	if err := api.service.DeletePermission(r.Context(), chi.URLParam(r, "key")); err != nil {
		api.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) assignPrincipalRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if !api.decode(w, r, &req) {
		return
	}
	err := api.service.AssignUserRole(r.Context(), chi.URLParam(r, "id"), req.CurrentRole, req.RequestedRole)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) auditLog(w http.ResponseWriter, r *http.Request) {
	filter := NewAuditFilter()
	q := r.URL.Query()
	if v := q.Get("actor"); v != "" {
		filter = filter.WithActor(v)
	}
	if v := q.Get("role"); v != "" {
		filter = filter.WithRole(v)
	}
	if v := q.Get("action"); v != "" {
		filter = filter.WithAction(AuditAction(v))
	}
	records, err := api.service.GetAuditLog(r.Context(), filter)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, records)
}

func (api *AdminAPI) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func (api *AdminAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		api.logger.Error("encode response", slog.Any("error", err))
	}
}

// writeError maps the guardkit error taxonomy onto the transport
// contract. The body carries the operator-facing detail (including the
// complete missing-key set for batch validation failures) but an
// authentication failure never says why.
func (api *AdminAPI) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case IsUnauthenticated(err):
		status, msg = http.StatusUnauthorized, "unauthenticated"
	case IsForbidden(err):
		status, msg = http.StatusForbidden, "forbidden"
	case IsNotFound(err):
		status, msg = http.StatusNotFound, "not found"
	case IsConflict(err):
		status, msg = http.StatusConflict, err.Error()
	case IsInvalidInput(err):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case IsStoreUnavailable(err):
		status, msg = http.StatusServiceUnavailable, "store unavailable"
	default:
		api.logger.Error("admin api", slog.String("path", r.URL.Path), slog.Any("error", err))
	}

	resp := errorResponse{Error: msg}
	var ge *Error
	if errors.As(err, &ge) && errors.Is(ge.Err, ErrUnknownPermissions) {
		resp.MissingKeys = ge.Keys
	}
	api.writeJSON(w, status, resp)
}
