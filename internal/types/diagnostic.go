package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

type DiagnosticTag string

const (
	LexicalErrorTag  DiagnosticTag = "LexicalError"
	SyntaxErrorTag   DiagnosticTag = "SyntaxError"
	OperatorErrorTag DiagnosticTag = "OperatorError"
)

// NoOffset marks a diagnostic that has no source location.
const NoOffset = -1

type Diagnostic struct {
	Tag     DiagnosticTag
	Message string
	Offset  int
}

func NewDiagnostic(tag DiagnosticTag, offset int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}

func (d Diagnostic) HasOffset() bool {
	return d.Offset >= 0
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(string(d.Tag))
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.HasOffset() {
		fmt.Fprintf(&b, " (offset %d)", d.Offset)
	}
	return b.String()
}

// Exception renders the diagnostic as a JSON-ready value.
func (d Diagnostic) Exception() any {
	o := map[string]any{
		"tag":     d.Tag,
		"message": d.Message,
	}
	if d.HasOffset() {
		o["offset"] = d.Offset
	}
	return o
}

// Diagnostics is an ordered accumulation of problems. A nil or empty value means success.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	return strings.Join(lo.Map(ds, func(d Diagnostic, _ int) string {
		return d.Error()
	}), "\n")
}

func (ds *Diagnostics) Append(d ...Diagnostic) {
	*ds = append(*ds, d...)
}

func (ds *Diagnostics) Addf(tag DiagnosticTag, offset int, format string, args ...any) {
	*ds = append(*ds, NewDiagnostic(tag, offset, format, args...))
}

// Err returns nil for an empty accumulation so callers can use the usual err != nil check.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}

func (ds Diagnostics) Exception() any {
	return lo.Map(ds, func(d Diagnostic, _ int) any {
		return d.Exception()
	})
}

// Messages returns nil for an empty accumulation.
func (ds Diagnostics) Messages() []string {
	if len(ds) == 0 {
		return nil
	}
	return lo.Map(ds, func(d Diagnostic, _ int) string {
		return d.Message
	})
}

// SortByOffset orders the diagnostics by source offset. Diagnostics at the same
// offset keep the order they were added in, and ones without an offset come first.
func (ds Diagnostics) SortByOffset() {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Offset < ds[j].Offset
	})
}
