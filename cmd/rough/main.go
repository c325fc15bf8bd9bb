package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/rough/internal/expression"
	"github.com/karupanerura/rough/internal/grammar"
	"github.com/karupanerura/rough/internal/server"
	"github.com/karupanerura/rough/internal/types"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

type Option struct {
	Grammar string  `short:"g" long:"grammar" description:"[OPTIONAL] Operator table file (YAML or JSON), the built-in table is used if omitted" required:"false"`
	Expr    *string `short:"e" long:"expr" description:"[OPTIONAL] Source text to parse instead of files" required:"false"`
	Tokens  bool    `long:"tokens" description:"[OPTIONAL] Print tokens instead of the syntax tree"`
	SExpr   bool    `long:"sexpr" description:"[OPTIONAL] Print S-expressions instead of JSON"`
	Listen  string  `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve the parse API" required:"false"`
}

type unit struct {
	name   string
	source string
	expr   expression.Expression
	tokens []expression.Token
	diags  types.Diagnostics
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	parser.Usage = "[OPTIONS] [FILE...]"
	files, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		} else {
			parser.WriteHelp(os.Stdout)
			return 1
		}
	}

	loader := func() (*expression.OperatorTable, error) {
		return loadOperatorTable(opt.Grammar)
	}

	// server mode
	if opt.Listen != "" {
		if opt.Expr != nil || len(files) != 0 {
			parser.WriteHelp(os.Stdout)
			return 1
		}
		if err = serveParser(opt.Listen, loader); err != nil {
			log.Printf("failed to serve parser: %v", err)
			return 1
		}
		return 0
	}

	if (opt.Expr == nil) == (len(files) == 0) {
		parser.WriteHelp(os.Stdout)
		return 1
	}

	table, err := loader()
	if err != nil {
		log.Printf("failed to load grammar: %v", err)
		return 1
	}

	units := collectUnits(&opt, files)
	if err = processUnits(units, table, opt.Expr == nil, opt.Tokens); err != nil {
		log.Printf("failed to read source: %v", err)
		return 1
	}

	exitCode := 0
	for _, u := range units {
		if len(u.diags) != 0 {
			exitCode = 1
			printDiagnostics(os.Stderr, u)
		}
		if err = printUnit(os.Stdout, u, &opt, len(units) > 1); err != nil {
			log.Printf("failed to dump %s: %v", u.name, err)
			exitCode = 1
		}
	}
	return exitCode
}

// collectUnits names the sources to parse. An empty -e is still an expression.
func collectUnits(opt *Option, files []string) []*unit {
	if opt.Expr != nil {
		return []*unit{{name: "<expr>", source: *opt.Expr}}
	}

	units := make([]*unit, len(files))
	for i, file := range files {
		units[i] = &unit{name: file}
	}
	return units
}

func loadOperatorTable(filePath string) (*expression.OperatorTable, error) {
	if filePath == "" {
		return grammar.Default(), nil
	}
	return grammar.Load(filePath)
}

// processUnits reads and parses every unit concurrently. The operator table is
// only read, so all parses share it.
func processUnits(units []*unit, table *expression.OperatorTable, readFiles, tokensOnly bool) error {
	eg := errgroup.Group{}
	eg.SetLimit(runtime.NumCPU())
	for _, u := range units {
		u := u
		eg.Go(func() error {
			if readFiles {
				b, err := os.ReadFile(u.name)
				if err != nil {
					return fmt.Errorf("os.ReadFile: %w", err)
				}
				u.source = string(b)
			}

			if tokensOnly {
				u.tokens, u.diags = expression.Tokenize(u.source)
			} else {
				u.expr, u.diags = expression.Parse(u.source, table)
			}
			return nil
		})
	}
	return eg.Wait()
}

func printDiagnostics(w io.Writer, u *unit) {
	for _, d := range u.diags {
		if d.HasOffset() {
			line, column := expression.Position(u.source, d.Offset)
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", u.name, line, column, d.Tag, d.Message)
		} else {
			fmt.Fprintf(w, "%s: %s: %s\n", u.name, d.Tag, d.Message)
		}
	}
}

func printUnit(w io.Writer, u *unit, opt *Option, withName bool) error {
	switch {
	case opt.Tokens:
		for _, tok := range u.tokens {
			if withName {
				if _, err := fmt.Fprintf(w, "%s\t", u.name); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%d\t%s\t%q\n", tok.Pos, tok.Kind, tok.String()); err != nil {
				return err
			}
		}
		return nil

	case opt.SExpr:
		if u.expr == nil {
			return nil
		}
		if withName {
			_, err := fmt.Fprintf(w, "%s: %s\n", u.name, expression.Render(u.expr))
			return err
		}
		_, err := fmt.Fprintln(w, expression.Render(u.expr))
		return err

	default:
		p := newJSONPrinter(w)
		if withName {
			return p.print(map[string]any{
				"file":        u.name,
				"expression":  expression.Dump(u.expr),
				"diagnostics": u.diags.Exception(),
			})
		}
		return p.print(expression.Dump(u.expr))
	}
}

// serveParser serves the parse API until SIGINT or SIGTERM, then drains open
// requests. The operator table is reloaded in the background meanwhile.
func serveParser(listen string, loader func() (*expression.OperatorTable, error)) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, err := server.NewHTTPHandler(ctx, loader, server.DefaultReloadInterval)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: listen, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listen HTTP on %s", listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Print("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

const shutdownTimeout = 10 * time.Second

type jsonPrinter struct {
	w    io.Writer
	opts []json.EncodeOptionFunc
}

// newJSONPrinter colorizes only when w is a terminal.
func newJSONPrinter(w io.Writer) *jsonPrinter {
	p := &jsonPrinter{w: w, opts: []json.EncodeOptionFunc{json.DisableHTMLEscape()}}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		p.opts = append(p.opts, json.Colorize(json.DefaultColorScheme))
	}
	return p
}

func (p *jsonPrinter) print(v any) error {
	b, err := json.MarshalIndentWithOption(v, "", "  ", p.opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}
	if _, err = p.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
