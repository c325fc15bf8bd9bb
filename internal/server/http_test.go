package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/rough/internal/expression"
	"github.com/karupanerura/rough/internal/grammar"
	"github.com/karupanerura/rough/internal/server"
)

type parseResult struct {
	Expression  map[string]any `json:"expression"`
	SExpr       string         `json:"sexpr"`
	Diagnostics []struct {
		Tag     string `json:"tag"`
		Message string `json:"message"`
		Offset  *int   `json:"offset"`
		Line    int    `json:"line"`
		Column  int    `json:"column"`
	} `json:"diagnostics"`
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handler, err := server.NewHTTPHandler(ctx, func() (*expression.OperatorTable, error) {
		return grammar.Default(), nil
	}, server.DefaultReloadInterval)
	if err != nil {
		t.Fatal(err)
	}
	return handler
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	for _, tt := range []struct {
		name        string
		body        string
		status      int
		sexpr       string
		diagnostics []string
		positions   [][2]int
	}{
		{
			name:   "Valid",
			body:   `{"source":"f x + 1"}`,
			status: http.StatusOK,
			sexpr:  "(+ (call f x) 1)",
		},
		{
			name:        "Partial",
			body:        `{"source":"a +\n  (b"}`,
			status:      http.StatusUnprocessableEntity,
			sexpr:       "(+ a b)",
			diagnostics: []string{"expected `)` but input ended"},
			positions:   [][2]int{{2, 5}},
		},
		{
			name:        "Empty",
			body:        `{"source":""}`,
			status:      http.StatusUnprocessableEntity,
			diagnostics: []string{"premature end of input"},
			positions:   [][2]int{{1, 1}},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(handler, http.MethodPost, "/v1/parse", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expect status %d but got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type: %s", ct)
			}

			var res parseResult
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			if res.SExpr != tt.sexpr {
				t.Errorf("expect to %s but got %s", tt.sexpr, res.SExpr)
			}
			if tt.sexpr != "" && res.Expression == nil {
				t.Error("expected a dumped expression")
			}

			var messages []string
			var positions [][2]int
			for _, d := range res.Diagnostics {
				messages = append(messages, d.Message)
				positions = append(positions, [2]int{d.Line, d.Column})
				if d.Offset == nil {
					t.Errorf("expected an offset for %q", d.Message)
				}
			}
			if diff := cmp.Diff(tt.diagnostics, messages); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.positions, positions); diff != "" {
				t.Errorf("positions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type operatorsResult struct {
	Operators []struct {
		Identifier string `json:"identifier"`
		Fixity     string `json:"fixity"`
		Precedence int    `json:"precedence"`
	} `json:"operators"`
}

func listOperators(t *testing.T, handler http.Handler) operatorsResult {
	t.Helper()

	rec := doRequest(handler, http.MethodGet, "/v1/operators", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var res operatorsResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestOperatorsEndpoint(t *testing.T) {
	t.Parallel()

	res := listOperators(t, newTestHandler(t))
	if len(res.Operators) != len(grammar.DefaultOperators) {
		t.Fatalf("expected %d operators but got %d", len(grammar.DefaultOperators), len(res.Operators))
	}
	if first := res.Operators[0]; first.Identifier != "or" || first.Fixity != "infix" || first.Precedence != 1 {
		t.Errorf("unexpected first operator: %+v", first)
	}
}

func TestHTTPHandlerReload(t *testing.T) {
	t.Parallel()

	initial, diags := expression.NewOperatorTable(
		expression.OperatorDefinition{Identifier: "+", Fixity: expression.Infix, Precedence: expression.PrecedenceThird},
	)
	if err := diags.Err(); err != nil {
		t.Fatal(err)
	}

	var loads int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler, err := server.NewHTTPHandler(ctx, func() (*expression.OperatorTable, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			return initial, nil
		}
		return grammar.Default(), nil
	}, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	if n := len(listOperators(t, handler).Operators); n != 1 {
		t.Fatalf("expected the initial table but got %d operators", n)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(listOperators(t, handler).Operators) != len(grammar.DefaultOperators) {
		if time.Now().After(deadline) {
			t.Fatal("grammar was not reloaded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	time.Sleep(50 * time.Millisecond)
	stopped := atomic.LoadInt32(&loads)
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&loads); n != stopped {
		t.Errorf("grammar reloaded after cancel: %d -> %d", stopped, n)
	}
}

func TestHTTPHandlerErrors(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	for _, tt := range []struct {
		method string
		path   string
		body   string
		status int
	}{
		{method: http.MethodGet, path: "/v1/parse", status: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/v1/operators", status: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/v1/unknown", status: http.StatusNotFound},
		{method: http.MethodPost, path: "/v1/parse", body: `{"source":`, status: http.StatusBadRequest},
	} {
		if rec := doRequest(handler, tt.method, tt.path, tt.body); rec.Code != tt.status {
			t.Errorf("%s %s: expect status %d but got %d", tt.method, tt.path, tt.status, rec.Code)
		}
	}
}

func TestNewHTTPHandlerLoaderError(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("broken grammar")
	_, err := server.NewHTTPHandler(context.Background(), func() (*expression.OperatorTable, error) {
		return nil, loadErr
	}, server.DefaultReloadInterval)
	if !errors.Is(err, loadErr) {
		t.Errorf("expected loader error but got %v", err)
	}
}
