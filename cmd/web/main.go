package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"gccontent/internal/chart"
	"gccontent/internal/composition"
	"gccontent/internal/config"
	"gccontent/internal/fasta"
	"gccontent/internal/logging"
	"gccontent/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

const previewChars = 500

// allowedExts are the upload extensions accepted by the form.
var allowedExts = map[string]bool{".fasta": true, ".fa": true, ".txt": true}

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"pct": report.FormatFloat,
}).ParseFS(templateFS, "templates/*.html"))

// Page carries the form state and, after a submission, the results.
type Page struct {
	Mode             string
	Sequence         string
	Preview          string
	Error            string
	Notice           string
	Header           []string
	Results          []composition.Result
	Summary          composition.Summary
	GCChart          template.URL
	CompositionChart template.URL
	CSVName          string
	CSVData          template.URL
}

// AnalyzeRequest is the JSON body accepted by /api/analyze. Sequence is raw
// pasted text; Fasta is a FASTA document. Both may be given.
type AnalyzeRequest struct {
	Sequence string `json:"sequence"`
	Fasta    string `json:"fasta"`
}

// statusResponseWriter captures status and bytes written for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

type ctxKey struct{}

// requestLogger returns the request-scoped logger set by loggingMiddleware.
func requestLogger(r *http.Request, fallback *log.Logger) *log.Logger {
	if l, ok := r.Context().Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return fallback
}

// loggingMiddleware logs each request with method, path, status, size and duration
func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		reqLogger := logger.With("request_id", id)
		w.Header().Set("X-Request-ID", id)
		srw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(srw, r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqLogger)))
		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		reqLogger.Info("request", "remote", r.RemoteAddr, "method", r.Method, "path", r.URL.RequestURI(),
			"status", srw.status, "bytes", srw.written, "duration", time.Since(start), "ua", r.UserAgent())
	})
}

func render(w http.ResponseWriter, status int, page Page) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "base.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func indexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		render(w, http.StatusOK, Page{Mode: "sequence"})
	}
}

// formRecords extracts records from the submitted form: the pasted text in
// "sequence" mode, or the uploaded file parsed as FASTA in "upload" mode.
func formRecords(r *http.Request, page *Page) ([]fasta.Record, error) {
	if page.Mode != "upload" {
		return composition.FromRaw(page.Sequence), nil
	}
	file, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()
	if ext := strings.ToLower(filepath.Ext(hdr.Filename)); !allowedExts[ext] {
		return nil, fmt.Errorf("unsupported file type %q (use .fasta, .fa or .txt)", ext)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	text, err := fasta.DecodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", hdr.Filename, err)
	}
	page.Preview = text
	if runes := []rune(text); len(runes) > previewChars {
		page.Preview = string(runes[:previewChars])
	}
	return fasta.ParseString(text), nil
}

// fillResults attaches results, summary, charts and the CSV download to page.
func fillResults(page *Page, results []composition.Result) error {
	page.Header = report.Header
	page.Results = results
	page.Summary = composition.Summarize(results)

	var csvBuf bytes.Buffer
	if err := report.WriteCSV(&csvBuf, results); err != nil {
		return err
	}
	page.CSVName = report.CSVFileName
	page.CSVData = dataURL("text/csv", csvBuf.Bytes())

	gc, err := chart.GCContent(results)
	if err != nil {
		return err
	}
	var png bytes.Buffer
	if err := chart.WritePNG(&png, gc, 0, 0); err != nil {
		return err
	}
	page.GCChart = dataURL("image/png", png.Bytes())

	comp, err := chart.BaseComposition(results[0])
	if err != nil {
		return err
	}
	png.Reset()
	if err := chart.WritePNG(&png, comp, 0, 0); err != nil {
		return err
	}
	page.CompositionChart = dataURL("image/png", png.Bytes())
	return nil
}

func dataURL(mime string, data []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func analyzeHandler(logger *log.Logger, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		lg := requestLogger(r, logger)
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			render(w, http.StatusBadRequest, Page{Mode: "sequence", Error: fmt.Sprintf("invalid form: %v", err)})
			return
		}
		page := Page{Mode: r.FormValue("mode"), Sequence: r.FormValue("sequence")}
		if page.Mode == "" {
			page.Mode = "sequence"
		}

		recs, err := formRecords(r, &page)
		if err != nil {
			lg.Warn("rejected input", "err", err)
			page.Error = err.Error()
			render(w, http.StatusBadRequest, page)
			return
		}
		results := composition.Analyze(recs)
		lg.Debug("analyzed form input", "mode", page.Mode, "records", len(recs), "results", len(results))
		if len(results) == 0 {
			if len(recs) > 0 || page.Preview != "" {
				page.Notice = "No usable sequences found."
			}
			render(w, http.StatusOK, page)
			return
		}
		if err := fillResults(&page, results); err != nil {
			lg.Error("render results failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		render(w, http.StatusOK, page)
	}
}

// apiAnalyzeHandler accepts an AnalyzeRequest and answers with the JSON
// document, or CSV when ?format=csv.
func apiAnalyzeHandler(logger *log.Logger, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lg := requestLogger(r, logger)
		var req AnalyzeRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload))
		if err := dec.Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		recs := fasta.ParseString(req.Fasta)
		recs = append(recs, composition.FromRaw(req.Sequence)...)
		results := composition.Analyze(recs)
		lg.Debug("analyzed api input", "records", len(recs), "results", len(results))

		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.CSVFileName))
			if err := report.WriteCSV(w, results); err != nil {
				lg.Error("write csv failed", "err", err)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := report.WriteJSON(w, results); err != nil {
			lg.Error("write json failed", "err", err)
		}
	}
}

func newMux(logger *log.Logger, maxUpload int64) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", indexHandler())
	mux.HandleFunc("/analyze", analyzeHandler(logger, maxUpload))
	mux.HandleFunc("/api/analyze", apiAnalyzeHandler(logger, maxUpload))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok\n")
	})
	return loggingMiddleware(logger, mux)
}

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	addr := flag.String("addr", "", "HTTP address to serve (overrides config)")
	logFile := flag.String("log", "", "path to write access logs (optional). If empty, logs go to stderr only")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gccontent-web: %v\n", err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	logger, closeLog := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Prefix: "gccontent", Timestamps: true})
	defer func() { _ = closeLog() }()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newMux(logger, cfg.MaxUploadBytes),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("serving GC content UI", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", "err", err)
	}
}
