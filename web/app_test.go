package web

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opshell/opshell"
)

type sumArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func testShell(t *testing.T) *opshell.Shell {
	t.Helper()
	s := opshell.NewShell()
	s.MustRegister("sum", opshell.NewFunc(func(a sumArgs) (float64, error) {
		return a.X + a.Y, nil
	}), "Add two numbers.", opshell.WebOnly())
	s.MustRegister("ping", opshell.NewNullary(func() (string, error) {
		return "pong", nil
	}), "Health probe.", opshell.WebOnly())
	s.MustRegister("local", opshell.NewNullary(func() (string, error) {
		return "cli only", nil
	}), "Not exposed over HTTP.")
	return s
}

func decodeResult(t *testing.T, body io.Reader) any {
	t.Helper()
	var envelope struct {
		Result any `json:"result"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Result
}

func TestApp_PostJSON(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/sum", strings.NewReader(`{"x":2,"y":3}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeResult(t, rec.Body); got != 5.0 {
		t.Errorf("result = %v, want 5", got)
	}
}

func TestApp_ValidationFailure(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/sum", strings.NewReader(`{"x":"2","y":3}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var envelope struct {
		Error *opshell.Error `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if envelope.Error == nil || envelope.Error.Code != opshell.CodeInvalidArgument {
		t.Errorf("error envelope = %+v, want code %s", envelope.Error, opshell.CodeInvalidArgument)
	}
}

func TestApp_CommandLineOperationsNotRouted(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/local", strings.NewReader(`null`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for a CLI-only operation", rec.Code)
	}
}

func TestApp_MethodNotAllowed(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	req := httptest.NewRequest(http.MethodDelete, "/sum", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestApp_GetBindsQueryArgs(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	req := httptest.NewRequest(http.MethodGet, "/sum?x=2&y=3", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeResult(t, rec.Body); got != 5.0 {
		t.Errorf("result = %v, want 5", got)
	}
}

func TestApp_NullaryIgnoresBody(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	for _, body := range []string{"", "null", `{"junk":1}`} {
		req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d for body %q", rec.Code, body)
		}
		if got := decodeResult(t, rec.Body); got != "pong" {
			t.Errorf("result = %v, want pong", got)
		}
	}
}

func TestApp_GzipRoundTrip(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write([]byte(`{"x":2,"y":3}`)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/sum", &compressed)
	req.Header.Set("Content-Type", "application/x-gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if enc := rec.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", enc)
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer zr.Close()
	if got := decodeResult(t, zr); got != 5.0 {
		t.Errorf("result = %v, want 5", got)
	}
}

func TestApp_BadGzipBody(t *testing.T) {
	h := NewApp(testShell(t)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/sum", strings.NewReader("not gzip"))
	req.Header.Set("Content-Type", "application/x-gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestApp_MiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(tag string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := NewApp(testShell(t)).
		WithMiddleware(mw("outer")).
		WithMiddleware(mw("inner")).
		Handler()

	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v, want [outer inner]", order)
	}
}

func TestApp_PanicRecovery(t *testing.T) {
	s := opshell.NewShell()
	s.MustRegister("boom", opshell.NewNullary(func() (string, error) {
		panic("kaboom")
	}), "Panics.", opshell.WebOnly())

	h := NewApp(s).Handler()
	req := httptest.NewRequest(http.MethodPost, "/boom", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
