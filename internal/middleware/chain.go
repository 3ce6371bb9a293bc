package middleware

import "net/http"

// Chain applies multiple middleware in order (first to last)
//
// Example:
//
//	handler := Chain(mux,
//	    RequestLogging,   // Executes first
//	    metrics.Instrument,
//	    CORS(origins),    // Executes last
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
