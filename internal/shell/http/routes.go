package http

import (
	"github.com/gorilla/mux"
	"github.com/redhatinsights/platform-go-middlewares/v2/identity"
)

func SetupRoutes(handler *ExportHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)

	// Apply identity middleware to all API routes
	api := router.PathPrefix("/api/export/v1").Subrouter()
	api.Use(identity.EnforceIdentity)

	api.HandleFunc("/knowntypes", handler.KnownTypes).Methods("GET")
	api.HandleFunc("/providers", handler.Providers).Methods("GET")
	api.HandleFunc("/data", handler.PreviewData).Methods("POST")
	api.HandleFunc("/run", handler.Run).Methods("POST")
	api.HandleFunc("/task/cancel", handler.CancelTask).Methods("POST")
	api.HandleFunc("/download/{fileName}", handler.Download).Methods("GET")
	api.HandleFunc("/notifications/{id}", handler.GetNotification).Methods("GET")

	return router
}
