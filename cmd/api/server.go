package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/products"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/rosdomofon"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/sync"
)

// VendorAPI is the RosDomofon surface the HTTP API uses.
type VendorAPI interface {
	products.Source
	UpdateSignup(ctx context.Context, signupID int64, status string) error
}

// APIServer handles HTTP requests
type APIServer struct {
	api       VendorAPI
	service   *sync.Service
	logger    *log.Logger
	comparing atomic.Bool
}

// NewAPIServer creates the server around an authenticated vendor client.
func NewAPIServer(api VendorAPI, service *sync.Service, logger *log.Logger) *APIServer {
	return &APIServer{
		api:     api,
		service: service,
		logger:  logger,
	}
}

// Router builds the route table with CORS applied.
func (s *APIServer) Router() http.Handler {
	router := mux.NewRouter()

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/products", s.listProducts).Methods("GET")
	api.HandleFunc("/reconcile", s.reconcile).Methods("GET")
	api.HandleFunc("/signups/{id:[0-9]+}", s.updateSignup).Methods("PATCH")

	router.HandleFunc("/health", s.healthCheck).Methods("GET")

	return handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowedMethods([]string{"GET", "PATCH", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"}),
	)(router)
}

func (s *APIServer) listProducts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("strategy")
	if name == "" {
		name = "entrances"
	}

	s.logger.Printf("📋 GET /api/v1/products?strategy=%s", name)

	strategy, ok := products.Lookup(name)
	if !ok {
		http.Error(w, "Unknown strategy", http.StatusBadRequest)
		return
	}

	set, err := strategy(r.Context(), s.api)
	if err != nil {
		s.logger.Printf("❌ Product collection failed: %v", err)
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategy": name,
		"products": set,
		"total":    len(set),
	})
}

func (s *APIServer) reconcile(w http.ResponseWriter, r *http.Request) {
	s.logger.Printf("🔄 GET /api/v1/reconcile")

	if !s.comparing.CompareAndSwap(false, true) {
		http.Error(w, "Comparison already in progress", http.StatusConflict)
		return
	}
	defer s.comparing.Store(false)

	result, err := s.service.CompareStrategies(r.Context(), s.api)
	if err != nil {
		s.logger.Printf("❌ Comparison failed: %v", err)
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *APIServer) updateSignup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	signupID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid signup id", http.StatusBadRequest)
		return
	}

	s.logger.Printf("📝 PATCH /api/v1/signups/%d", signupID)

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if body.Status == "" {
		http.Error(w, "Status is required", http.StatusBadRequest)
		return
	}

	if err := s.api.UpdateSignup(r.Context(), signupID, body.Status); err != nil {
		s.logger.Printf("❌ Signup update failed: %v", err)
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     signupID,
		"status": body.Status,
	})
}

func (s *APIServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// writeUpstreamError maps vendor API failures onto a gateway status.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *rosdomofon.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		http.Error(w, "Not found upstream", http.StatusNotFound)
		return
	}
	http.Error(w, "RosDomofon API request failed", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
