// Command formstate fills a form from the terminal. It loads a declarative
// definition (or derives one from an OpenAPI operation), prompts for each
// field, and prints the collected values.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/draft"
	"github.com/goliatone/go-formstate/pkg/form"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/session"
)

const fetchTimeout = 30 * time.Second

type options struct {
	definition string
	openapi    string
	operation  string
	output     string
	out        string
	draftDir   string
	noInput    bool
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.definition, "definition", "", "form definition file or URL (JSON or YAML)")
	flag.StringVar(&opts.openapi, "openapi", "", "OpenAPI document file or URL")
	flag.StringVar(&opts.operation, "operation", "", "operation id to build the form from (with -openapi)")
	flag.StringVar(&opts.output, "output", "json", "serialization for collected values: json, yaml, or none")
	flag.StringVar(&opts.out, "out", "", "write output to this file instead of stdout")
	flag.StringVar(&opts.draftDir, "draft", "", "draft directory; answers autosave there and restore on the next run")
	flag.BoolVar(&opts.noInput, "no-input", false, "print the rendered HTML form instead of prompting")
	flag.BoolVar(&opts.verbose, "verbose", false, "log diagnostics to stderr")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		log.Fatalf("formstate: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	format := session.OutputFormat(opts.output)
	switch format {
	case session.OutputFormatJSON, session.OutputFormatYAML, session.OutputFormatNone:
	default:
		return fmt.Errorf("unknown output format %q (json, yaml, or none)", opts.output)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	def, err := resolveDefinition(ctx, opts)
	if err != nil {
		return err
	}
	logger.Info("formstate: definition ready", "form", def.Name, "fields", len(def.Fields))

	// Per-leaf writes stay silent; validation runs once, inside Submit.
	engine, err := def.Engine(
		form.WithValidateOnChange(false),
		form.WithValidateOnBlur(false),
	)
	if err != nil {
		return err
	}

	var store draft.Store
	if opts.draftDir != "" {
		store, err = draft.NewBadgerStore(opts.draftDir, draft.WithBadgerLogger(logger))
		if err != nil {
			return err
		}
		defer store.Close()

		switch err := draft.Restore(ctx, engine, store, def.Name); {
		case err == nil:
			logger.Info("formstate: draft restored", "form", def.Name)
		case errors.Is(err, draft.ErrNotFound):
			logger.Debug("formstate: no draft yet", "form", def.Name)
		default:
			logger.Warn("formstate: draft restore failed", "form", def.Name, "error", err)
		}
	}

	out := io.Writer(os.Stdout)
	if opts.out != "" {
		file, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.out, err)
		}
		defer file.Close()
		out = file
	}

	if opts.noInput {
		page, err := formstate.RenderHTML(ctx, def, render.SnapshotOptions(engine))
		if err != nil {
			return err
		}
		if _, err := out.Write(page); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	stop := func() {}
	if store != nil {
		stop = draft.Autosave(engine, store, def.Name, draft.WithAutosaveLogger(logger))
	}
	defer stop()

	sess, err := formstate.NewSession(def,
		session.WithEngine(engine),
		session.WithOutputFormat(format),
		session.WithWriter(out),
		session.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if _, err := sess.Run(ctx); err != nil {
		if store != nil && errors.Is(err, session.ErrAborted) {
			return fmt.Errorf("%w; draft retained under %s", err, opts.draftDir)
		}
		return err
	}

	if store != nil {
		// Flush the autosaver before discarding, or a pending edit would
		// resurrect the draft.
		stop()
		if err := store.Delete(ctx, def.Name); err != nil {
			logger.Warn("formstate: draft cleanup failed", "form", def.Name, "error", err)
		}
	}
	return nil
}

func resolveDefinition(ctx context.Context, opts options) (formstate.Definition, error) {
	httpOK := pkgopenapi.WithHTTPFallback(fetchTimeout)

	switch {
	case opts.definition != "" && opts.openapi != "":
		return formstate.Definition{}, errors.New("pass either -definition or -openapi, not both")
	case opts.definition != "":
		return formstate.LoadDefinition(ctx, parseSource(opts.definition), httpOK)
	case opts.openapi != "":
		src := parseSource(opts.openapi)
		if opts.operation == "" {
			return formstate.Definition{}, operationHint(ctx, src)
		}
		return formstate.FromOpenAPI(ctx, src, opts.operation, httpOK)
	default:
		return formstate.Definition{}, errors.New("pass -definition or -openapi (see -help)")
	}
}

// operationHint builds the missing-operation error, listing the ids the
// document offers.
func operationHint(ctx context.Context, src pkgopenapi.Source) error {
	doc, err := formstate.NewLoader(pkgopenapi.WithHTTPFallback(fetchTimeout)).Load(ctx, src)
	if err != nil {
		return err
	}
	operations, err := formstate.NewParser().Operations(ctx, doc)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(operations))
	for id := range operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Errorf("-operation is required; %s offers: %s", doc.Location(), strings.Join(ids, ", "))
}

func parseSource(raw string) pkgopenapi.Source {
	path := strings.TrimSpace(raw)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return pkgopenapi.SourceFromURL(path)
	}
	return pkgopenapi.SourceFromFile(path)
}
