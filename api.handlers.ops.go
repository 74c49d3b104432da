package main

import (
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// OpsHandlerWrapper adapts a standard handler to the router signature.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

func (api *APIHandler) GetCPUProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Profile(w, r)
}

func (api *APIHandler) GetTraceProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Trace(w, r)
}

func (api *APIHandler) GetSymbol(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Symbol(w, r)
}

func (api *APIHandler) GetCmdLine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Cmdline(w, r)
}

// MaintenanceNotice is served to public users while maintenance mode is on.
type MaintenanceNotice struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
	Since   string `json:"since"`
}

// Maintenance enables or disables the maintenance mode of the service.
// Enable the maintenance mode : /ops/maintenance?status=enable&msg=message-to-be-displayed-to-users
// Disable the maintenance mode: /ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	q := r.URL.Query()
	mstatus := q.Get("status")

	var resp *APIResponse
	switch mstatus {
	case "enable":
		api.mode.mu.Lock()
		api.mode.message = q.Get("msg")
		api.mode.started = api.clock.Now().UTC()
		api.mode.enabled.Store(true)
		data := map[string]string{
			"maintenance.started": api.mode.started.Format(time.RFC1123),
			"maintenance.message": api.mode.message,
		}
		api.mode.mu.Unlock()
		api.logger.Warn("maintenance mode enabled", zap.String("request.id", requestID))
		resp = GenericResponse(requestID, http.StatusOK, "Maintenance mode enabled successfully.", data)

	case "disable":
		api.mode.mu.Lock()
		api.mode.enabled.Store(false)
		api.mode.started = time.Time{}
		api.mode.message = ""
		api.mode.mu.Unlock()
		api.logger.Warn("maintenance mode disabled", zap.String("request.id", requestID))
		resp = GenericResponse(requestID, http.StatusOK, "Maintenance mode disabled successfully.", EmptyData)

	default:
		errResp := NewAPIError(requestID, http.StatusBadRequest, "status query parameter must be enable or disable", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send maintenance response",
			zap.String("request.id", requestID),
			zap.String("request.maintenance", mstatus),
			zap.Error(err),
		)
	}
}

// maintenanceNotice builds the 503 payload from the current mode.
func (api *APIHandler) maintenanceNotice() MaintenanceNotice {
	api.mode.mu.RLock()
	defer api.mode.mu.RUnlock()
	return MaintenanceNotice{
		Message: "service currently unavailable.",
		Reason:  api.mode.message,
		Since:   api.mode.started.Format(time.RFC1123),
	}
}

// export goroutines to be used by expvar handler.
var goroutines = expvar.NewInt("goroutines")

// GetMemStats returns memory statistics with number of goroutines in json.
func GetMemStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	goroutines.Set(int64(runtime.NumGoroutine()))
	expvar.Handler().ServeHTTP(w, r)
}

// RunGC forces the run of the garbage collector asynchronously.
func (api *APIHandler) RunGC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	go runtime.GC()
	resp := GenericResponse(requestID, http.StatusOK, "called go runtime.GC()", EmptyData)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send run gc response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// FreeOSMemory forces the garbage collector to run and tries to return
// the memory back to the operating system in an asynchronous fashion.
func (api *APIHandler) FreeOSMemory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	go debug.FreeOSMemory()
	resp := GenericResponse(requestID, http.StatusOK, "called go debug.FreeOSMemory()", EmptyData)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send free os memory response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetStatistics provides useful details about the application to the internal ops users.
// The stats returned do not contain the ops request which triggered them. That is why
// we remove 1 from the called field value in order to match the status stats.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	api.mode.mu.RLock()
	maintenanceStarted := ""
	if !api.mode.started.IsZero() {
		maintenanceStarted = api.mode.started.Format(time.RFC1123)
	}
	maintenance := map[string]interface{}{
		"enabled": api.mode.enabled.Load(),
		"started": maintenanceStarted,
		"message": api.mode.message,
	}
	api.mode.mu.RUnlock()

	api.stats.mu.RLock()
	status := make(map[int]uint64, len(api.stats.status))
	for code, count := range api.stats.status {
		status[code] = count
	}
	api.stats.mu.RUnlock()

	called := atomic.LoadUint64(&api.stats.called)
	if called > 0 {
		called--
	}
	data := map[string]interface{}{
		"app.version":   api.stats.version,
		"app.container": api.stats.container,
		"app.platform":  api.stats.platform,
		"go.version":    api.stats.runtime,
		"called":        called,
		"started":       api.stats.started.Format(time.RFC1123),
		"uptime":        fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"maintenance":   maintenance,
		"status":        status,
	}
	resp := GenericResponse(requestID, http.StatusOK, "Statistics fetched successfully.", data)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send statistics response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetConfigs serves current in-use configurations with secrets redacted.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	resp := GenericResponse(requestID, http.StatusOK, "Configs fetched successfully.", api.config.Redacted())
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send settings response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// ResetStorage drops and recreates the books storage.
func (api *APIHandler) ResetStorage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := api.maintainer.Reset(r.Context()); err != nil {
		api.logger.Error("failed to reset storage", zap.String("request.id", requestID), zap.Error(err))
		api.writeError(w, r, err, "failed to reset the storage")
		return
	}
	api.logger.Warn("storage reset done", zap.String("request.id", requestID), zap.String("request.ip", GetRequestSourceIP(r)))
	resp := GenericResponse(requestID, http.StatusOK, "Storage reset successfully.", EmptyData)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send reset response", zap.String("request.id", requestID), zap.Error(err))
	}
}
