package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Handler routes /api/* traffic to the owning backend. It holds no business
// state: everything it does is filter, forward, and log.
type Handler struct {
	productsProxy *ServiceProxy
	ordersProxy   *ServiceProxy
	logger        *slog.Logger
}

func NewHandler(productsProxy, ordersProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		productsProxy: productsProxy,
		ordersProxy:   ordersProxy,
		logger:        logger,
	}
}

func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.productsProxy)
}

func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.ordersProxy)
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy) {
	path := strings.TrimPrefix(r.URL.Path, "/api")

	h.logger.Info("gateway access", "method", r.Method, "path", r.URL.Path)

	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "bad_gateway", "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("gateway response", "method", r.Method, "path", r.URL.Path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
