package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/karupanerura/rough/internal/expression"
	"github.com/karupanerura/rough/internal/types"
	"github.com/samber/lo"
)

const (
	parsePath     = "/v1/parse"
	operatorsPath = "/v1/operators"

	maxSourceBytes = 1 << 20
)

type parseRequest struct {
	Source string `json:"source"`
}

type parseResponse struct {
	Expression  any          `json:"expression"`
	SExpr       string       `json:"sexpr,omitempty"`
	Diagnostics []diagnostic `json:"diagnostics"`
}

type diagnostic struct {
	Tag     types.DiagnosticTag `json:"tag"`
	Message string              `json:"message"`
	Offset  *int                `json:"offset,omitempty"`
	Line    int                 `json:"line,omitempty"`
	Column  int                 `json:"column,omitempty"`
}

type operator struct {
	Identifier string `json:"identifier"`
	Fixity     string `json:"fixity"`
	Precedence int    `json:"precedence"`
}

type httpHandler struct {
	operatorTable atomic.Value
	parsed        uint64
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case parsePath:
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.parse(w, r)

	case operatorsPath:
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.listOperators(w, r)

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (h *httpHandler) table() *expression.OperatorTable {
	return h.operatorTable.Load().(*expression.OperatorTable)
}

func (h *httpHandler) parse(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req parseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxSourceBytes)).Decode(&req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	expr, diags := expression.Parse(req.Source, h.table())
	n := atomic.AddUint64(&h.parsed, 1)
	if len(diags) != 0 {
		log.Printf("parse #%d: %d diagnostic(s)", n, len(diags))
	}

	res := parseResponse{
		Expression:  expression.Dump(expr),
		Diagnostics: newDiagnostics(req.Source, diags),
	}
	if expr != nil {
		res.SExpr = expression.Render(expr)
	}

	status := http.StatusOK
	if len(diags) != 0 {
		status = http.StatusUnprocessableEntity
	}
	if err := resJSON(w, status, res); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *httpHandler) listOperators(w http.ResponseWriter, r *http.Request) {
	operators := lo.Map(h.table().Definitions(), func(def expression.OperatorDefinition, _ int) operator {
		return operator{
			Identifier: def.Identifier,
			Fixity:     def.Fixity.String(),
			Precedence: int(def.Precedence),
		}
	})
	if err := resJSON(w, http.StatusOK, map[string][]operator{"operators": operators}); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func newDiagnostics(source string, diags types.Diagnostics) []diagnostic {
	return lo.Map(diags, func(d types.Diagnostic, _ int) diagnostic {
		v := diagnostic{Tag: d.Tag, Message: d.Message}
		if d.HasOffset() {
			offset := d.Offset
			v.Offset = &offset
			v.Line, v.Column = expression.Position(source, offset)
		}
		return v
	})
}

// DefaultReloadInterval is how often the CLI server reloads its grammar.
const DefaultReloadInterval = 5 * time.Second

// NewHTTPHandler serves parse requests against the table returned by loader. The
// loader is called again every interval so grammar edits are picked up, until ctx
// is done.
func NewHTTPHandler(ctx context.Context, loader func() (*expression.OperatorTable, error), interval time.Duration) (http.Handler, error) {
	table, err := loader()
	if err != nil {
		return nil, err
	}

	h := &httpHandler{}
	h.operatorTable.Store(table)
	go h.reload(ctx, loader, interval)
	return h, nil
}

func (h *httpHandler) reload(ctx context.Context, loader func() (*expression.OperatorTable, error), interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
		}

		table, err := loader()
		if err != nil {
			log.Printf("failed to reload grammar: %v", err)
			continue
		}
		h.operatorTable.Store(table)
	}
}

func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
