package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck is a named readiness probe. Probe returns nil when ready.
type ReadyCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// healthReport is the JSON body of /healthz and /readyz. Checks maps each
// probe name to "ok" or its error text.
type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves liveness at /healthz: always 200 {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeReport(rw, http.StatusOK, healthReport{Status: healthStatusOK})
	})
}

// ReadyHandler serves readiness at /readyz. Every check runs on each request;
// any failure turns the response into 503 "unavailable".
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		report := healthReport{Status: healthStatusOK}
		code := http.StatusOK

		for _, check := range checks {
			if report.Checks == nil {
				report.Checks = make(map[string]string, len(checks))
			}

			report.Checks[check.Name] = healthStatusOK

			if err := check.Probe(hr.Context()); err != nil {
				report.Checks[check.Name] = err.Error()
				report.Status = healthStatusUnavailable
				code = http.StatusServiceUnavailable
			}
		}

		writeReport(rw, code, report)
	})
}

func writeReport(rw http.ResponseWriter, code int, report healthReport) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	err := json.NewEncoder(rw).Encode(report)
	if err != nil {
		slog.Debug("write health report", "error", err)
	}
}

// DiagnosticsServer serves /healthz, /readyz and, when a handler is given,
// /metrics next to a running command.
type DiagnosticsServer struct {
	server   *http.Server
	listener net.Listener
}

// NewDiagnosticsServer listens on addr and serves in the background. A nil
// metrics handler leaves /metrics unregistered.
func NewDiagnosticsServer(addr string, metrics http.Handler, checks ...ReadyCheck) (*DiagnosticsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler(checks...))

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	d := &DiagnosticsServer{
		server:   &http.Server{Handler: mux},
		listener: listener,
	}

	go d.serve()

	return d, nil
}

func (d *DiagnosticsServer) serve() {
	err := d.server.Serve(d.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("diagnostics server stopped", "addr", d.Addr(), "error", err)
	}
}

// Addr returns the bound address, useful when addr had port 0.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Close stops the server, waiting for in-flight requests until ctx ends.
func (d *DiagnosticsServer) Close(ctx context.Context) error {
	err := d.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}

	return nil
}
