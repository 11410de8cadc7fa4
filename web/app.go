// Package web serves a shell's web-exposed operations over HTTP. Each
// operation gets one route at /{name} accepting GET and POST; request and
// response bodies are JSON, with optional gzip framing. The package reuses
// the core dispatch sequence and does not reimplement validation.
package web

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/opshell/opshell"
)

// App builds the HTTP handler for a shell.
type App struct {
	shell              *opshell.Shell
	logger             *slog.Logger
	middlewares        []func(http.Handler) http.Handler
	maxRequestBodySize int64
}

// NewApp returns an App serving the shell's web-exposed operations.
func NewApp(shell *opshell.Shell) *App {
	return &App{
		shell:              shell,
		maxRequestBodySize: 1 << 20, // 1MB default
	}
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// WithMiddleware adds an HTTP middleware to wrap the app.
// Middleware is applied in the order added (first added is outermost).
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithMaxRequestBodySize sets the maximum request body size in bytes.
// A value of 0 means no limit. Default is 1MB.
func (a *App) WithMaxRequestBodySize(size int64) *App {
	a.maxRequestBodySize = size
	return a
}

// Handler returns an http.Handler for use with http.ListenAndServe. Only
// operations the shell reports as web-exposed get routes; command-line
// operations are never reachable over HTTP.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, name := range a.shell.WebNames() {
		mux.Handle("/"+name, &endpoint{app: a, name: name})
	}
	var h http.Handler = mux
	// Apply middleware in reverse order so first added is outermost.
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

// ListenAndServe serves the app on addr until the server fails.
func (a *App) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, a.Handler())
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// endpoint binds one route to one registered operation name.
type endpoint struct {
	app  *App
	name string
}

func (e *endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := e.app.log()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("PANIC recovered",
				slog.String("operation", e.name),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			writeError(w, opshell.Errorf(opshell.CodeInternal, "internal server error (panic): %v", rec), logger)
		}
	}()

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, opshell.Errorf(opshell.CodeMethodNotAllowed, "method %s not allowed", r.Method), logger)
		return
	}

	args, gzipped, err := e.decodeArgs(w, r)
	if err != nil {
		writeError(w, toError(err), logger)
		return
	}

	result, err := opshell.Dispatch(e.app.shell, e.name, args)
	if err != nil {
		writeError(w, toError(err), logger)
		return
	}

	e.writeResult(w, result, gzipped, logger)
}

// decodeArgs extracts the argument value from the request. POST bodies are
// JSON, optionally gzip-compressed when sent as application/x-gzip; GET
// requests bind query parameters when the operation supports it.
func (e *endpoint) decodeArgs(w http.ResponseWriter, r *http.Request) (args any, gzipped bool, err error) {
	if r.Method == http.MethodGet {
		if len(r.URL.Query()) == 0 {
			return nil, false, nil
		}
		desc, err := e.app.shell.Descriptor(e.name)
		if err != nil {
			return nil, false, err
		}
		binder, ok := desc.Operation().(opshell.QueryBinder)
		if !ok {
			return nil, false, nil
		}
		m, err := binder.BindQuery(r.URL.Query())
		if err != nil {
			return nil, false, err
		}
		return m, false, nil
	}

	var body io.Reader = r.Body
	if e.app.maxRequestBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, e.app.maxRequestBodySize)
	}

	if r.Header.Get("Content-Type") == "application/x-gzip" {
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, true, opshell.Errorf(opshell.CodeInvalidArgument, "decompress body: %v", err)
		}
		defer zr.Close()
		body = zr
		gzipped = true
	}

	if err := json.NewDecoder(body).Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty body means no arguments.
			return nil, gzipped, nil
		}
		return nil, gzipped, opshell.Errorf(opshell.CodeInvalidArgument, "decode body: %v", err)
	}
	return args, gzipped, nil
}

// writeResult serializes the dispatch result. Responses to gzip-framed
// requests are gzip-compressed with an explicit Content-Encoding.
func (e *endpoint) writeResult(w http.ResponseWriter, result any, gzipped bool, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")

	if gzipped {
		payload, err := json.Marshal(response{Result: result})
		if err != nil {
			writeError(w, opshell.Errorf(opshell.CodeInternal, "encode response: %v", err), logger)
			return
		}
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err == nil {
			err = zw.Close()
		}
		if err != nil {
			writeError(w, opshell.Errorf(opshell.CodeInternal, "compress response: %v", err), logger)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if _, err := w.Write(buf.Bytes()); err != nil {
			logger.Error("failed to write response", slog.String("operation", e.name), slog.Any("error", err))
		}
		return
	}

	if err := json.NewEncoder(w).Encode(response{Result: result}); err != nil {
		// Response may be partially written, nothing we can do.
		logger.Error("failed to encode response", slog.String("operation", e.name), slog.Any("error", err))
	}
}

// toError maps an application error to the wire envelope. Core errors pass
// through; anything an operation raised becomes an internal error.
func toError(err error) *opshell.Error {
	var opErr *opshell.Error
	if errors.As(err, &opErr) {
		return opErr
	}
	return opshell.NewError(opshell.CodeInternal, err.Error())
}

func writeError(w http.ResponseWriter, e *opshell.Error, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code.HTTPStatus())
	if err := json.NewEncoder(w).Encode(errorResponse{Error: e}); err != nil {
		logger.Error("failed to encode error response",
			slog.String("code", string(e.Code)),
			slog.String("message", e.Message),
			slog.Any("error", err))
	}
}
