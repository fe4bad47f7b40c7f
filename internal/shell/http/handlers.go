package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redhatinsights/platform-go-middlewares/v2/identity"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
	appidentity "export-service/internal/identity"
)

type ExportHandler struct {
	service       ports.ExportService
	store         ports.FileStore
	notifications ports.NotificationRepository
	permissions   appidentity.PermissionChecker
}

func NewExportHandler(service ports.ExportService, store ports.FileStore, notifications ports.NotificationRepository, permissions appidentity.PermissionChecker) *ExportHandler {
	return &ExportHandler{
		service:       service,
		store:         store,
		notifications: notifications,
		permissions:   permissions,
	}
}

// principal extracts and validates the identity set by the platform
// middleware. A false return means the error response was already written.
func (h *ExportHandler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	ident := identity.Get(r.Context())
	if !appidentity.IsValid(ident) {
		log.Printf("Request rejected - invalid identity (%s %s)", r.Method, r.URL.Path)
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorInvalidIdentity()})
		return domain.Principal{}, false
	}
	return appidentity.FromXRHID(ident), true
}

// KnownTypes lists the registered export types. Requires the base export
// permission; the catalog itself is not public.
func (h *ExportHandler) KnownTypes(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if !h.permissions.HasPermission(r.Context(), principal, appidentity.PermissionExportAccess) {
		respondWithErrors(w, http.StatusUnauthorized, []ErrorObject{errorUnauthorized()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToTypeResponseList(h.service.KnownTypes()))
}

// Providers lists the available export output formats.
func (h *ExportHandler) Providers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToProviderResponseList(h.service.Providers()))
}

// PreviewData returns the first page of an export plus the total count,
// without creating a job.
func (h *ExportHandler) PreviewData(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Type  string          `json:"type"`
		Query json.RawMessage `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorInvalidJSON(err)})
		return
	}
	if req.Type == "" {
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorMissingFields()})
		return
	}

	preview, err := h.service.PreviewData(r.Context(), principal, domain.ExportRequest{
		ExportTypeName: req.Type,
		Query:          req.Query,
	})
	if err != nil {
		h.respondServiceError(w, err, req.Type)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToPreviewResponse(preview))
}

// Run starts a background export job and returns its notification.
func (h *ExportHandler) Run(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Type     string          `json:"type"`
		Provider string          `json:"provider"`
		Query    json.RawMessage `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorInvalidJSON(err)})
		return
	}
	if req.Type == "" || req.Provider == "" {
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorMissingFields()})
		return
	}

	notification, err := h.service.Run(r.Context(), principal, domain.ExportRequest{
		ExportTypeName: req.Type,
		Provider:       req.Provider,
		Query:          req.Query,
	})
	if err != nil {
		h.respondServiceError(w, err, req.Type)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ToNotificationResponse(notification))
}

// CancelTask requests cancellation of a running or pending export job.
// Unknown and already-finished jobs are a no-op, not an error.
func (h *ExportHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	var req struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorInvalidJSON(err)})
		return
	}
	if req.JobID == "" {
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorMissingFields()})
		return
	}

	h.service.Cancel(r.Context(), req.JobID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"job_id": req.JobID, "status": "cancellation_requested"})
}

// Download streams a finished export file. Requires the platform export
// permission or the module download permission.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	allowed := h.permissions.HasPermission(r.Context(), principal, appidentity.PermissionPlatformExport) ||
		h.permissions.HasPermission(r.Context(), principal, appidentity.PermissionExportDownload)
	if !allowed {
		respondWithErrors(w, http.StatusUnauthorized, []ErrorObject{errorUnauthorized()})
		return
	}

	fileName := mux.Vars(r)["fileName"]
	file, err := h.store.Open(fileName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFileName):
			respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorBadRequest("The requested file name is not valid")})
		case errors.Is(err, domain.ErrFileNotFound):
			respondWithErrors(w, http.StatusNotFound, []ErrorObject{errorNotFound("export file", fileName)})
		default:
			log.Printf("Download of %s failed: %v", fileName, err)
			respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
		}
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	http.ServeContent(w, r, file.Name, file.ModTime, file)
}

// GetNotification returns the latest known state of one export notification.
func (h *ExportHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	id := mux.Vars(r)["id"]
	notification, err := h.notifications.FindByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			respondWithErrors(w, http.StatusNotFound, []ErrorObject{errorNotFound("notification", id)})
			return
		}
		log.Printf("Notification lookup %s failed: %v", id, err)
		respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToNotificationResponse(notification))
}

// respondServiceError maps orchestration errors onto HTTP statuses. Denied
// authorization is indistinguishable from a missing permission on an
// existing type.
func (h *ExportHandler) respondServiceError(w http.ResponseWriter, err error, typeName string) {
	switch {
	case errors.Is(err, domain.ErrAuthorizationDenied):
		respondWithErrors(w, http.StatusUnauthorized, []ErrorObject{errorUnauthorized()})
	case errors.Is(err, domain.ErrUnknownExportType):
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorBadRequest("Unknown export type '" + typeName + "'")})
	case errors.Is(err, domain.ErrUnknownProvider):
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorBadRequest("Unknown export provider")})
	case errors.Is(err, domain.ErrInvalidQuery):
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorBadRequest(err.Error())})
	case errors.Is(err, domain.ErrDataSource):
		log.Printf("Export request for type %s failed: %v", typeName, err)
		respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
	default:
		log.Printf("Export request for type %s failed: %v", typeName, err)
		respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
	}
}
