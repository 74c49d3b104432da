package main

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// Maintenance holds app maintenance mode infos.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.RWMutex
	message string
	started time.Time
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger      *zap.Logger
	config      *Config
	stats       *Statistics
	mode        *Maintenance
	clock       Clocker
	idsHandler  UIDHandler
	bookService BookServiceProvider
	authService AuthServiceProvider
	carrier     TokenCarrier
	maintainer  *StorageMaintainer
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(
	logger *zap.Logger,
	config *Config,
	stats *Statistics,
	clock Clocker,
	idsHandler UIDHandler,
	bs BookServiceProvider,
	as AuthServiceProvider,
	carrier TokenCarrier,
	maintainer *StorageMaintainer,
) *APIHandler {
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:      logger,
		config:      config,
		stats:       stats,
		mode:        &Maintenance{},
		clock:       clock,
		idsHandler:  idsHandler,
		bookService: bs,
		authService: as,
		carrier:     carrier,
		maintainer:  maintainer,
	}
}

// writeError sends err to the client with the status code and details
// it maps to. Only validation errors carry details in the data field.
func (api *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	errResp := NewAPIError(requestID, ErrorStatus(err), message, ErrorData(err))
	if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// NotFound is the handler used by the router for unknown routes.
func (api *APIHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	errResp := NewAPIError(requestID, http.StatusNotFound, "route not found", EmptyData)
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send not found response", zap.String("request.path", r.URL.Path), zap.Error(err))
	}
}
