package handler

import (
	"github.com/gorilla/mux"

	applog "github.com/subtrack/subtrack/internal/log"
	"github.com/subtrack/subtrack/pkg/response"
)

// NewRouter wires the full HTTP surface.
func NewRouter(subscription *SubscriptionHandler, health *HealthHandler, logger *applog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger.WithComponent("http")))
	router.Use(response.CORSMiddleware)

	// Health checks
	router.HandleFunc("/health", health.Health).Methods("GET")
	router.HandleFunc("/health/ready", health.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/customers", subscription.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers", subscription.ListCustomers).Methods("GET")
	api.HandleFunc("/customers/{customerId}", subscription.GetCustomer).Methods("GET")
	api.HandleFunc("/customers/{customerId}", subscription.UpdateCustomer).Methods("PUT")
	api.HandleFunc("/customers/{customerId}", subscription.DeleteCustomer).Methods("DELETE")
	api.HandleFunc("/customers/{customerId}/status", subscription.GetStatus).Methods("GET")
	api.HandleFunc("/customers/{customerId}/payments", subscription.RecordPayment).Methods("POST")
	api.HandleFunc("/customers/{customerId}/payments", subscription.ListPayments).Methods("GET")
	api.HandleFunc("/payments/{paymentId}", subscription.UpdatePayment).Methods("PUT")
	api.HandleFunc("/payments/{paymentId}", subscription.DeletePayment).Methods("DELETE")
	api.HandleFunc("/payments/{paymentId}/allocations", subscription.GetAllocations).Methods("GET")
	api.HandleFunc("/reports/monthly", subscription.MonthlyReport).Methods("GET")

	return router
}
