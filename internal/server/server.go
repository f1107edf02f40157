package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dshills/critic/internal/output"
	"github.com/dshills/critic/internal/review"
	"github.com/dshills/critic/internal/telemetry"
)

const (
	fileField     = "pythonFile"
	defaultFormat = "legacy"

	msgNoPart        = "❌ No file part in the request."
	msgNoFile        = "❌ No selected file."
	msgNotPython     = "❌ Please upload a valid Python (.py) file."
	msgNotText       = "❌ Could not decode the file as UTF-8 text."
	msgTooLarge      = "❌ File is too large."
	msgTooMany       = "❌ Too many requests, try again shortly."
	msgUnexpectedFmt = "❌ Unexpected Error: %v"
)

// Analyzer runs the pipeline over an uploaded file.
type Analyzer interface {
	AnalyzeBytes(ctx context.Context, name string, data []byte) (*review.Report, error)
}

// Options configures a Server.
type Options struct {
	Addr              string
	MaxUploadBytes    int64
	RequestsPerSecond float64 // 0 disables rate limiting
	ShutdownTimeout   time.Duration
	Logger            hclog.Logger
}

// Server is the upload front end.
type Server struct {
	analyzer Analyzer
	opts     Options
	limiter  *rate.Limiter
	logger   hclog.Logger
	router   *gin.Engine
}

// New creates a Server and registers its routes.
func New(analyzer Analyzer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 1 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		analyzer: analyzer,
		opts:     opts,
		logger:   opts.Logger.Named("server"),
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())
	router.GET("/", s.index)
	router.POST("/analyze", s.analyze)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(telemetry.Handler()))
	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

func (s *Server) analyze(c *gin.Context) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.reject(c, http.StatusTooManyRequests, msgTooMany)
		return
	}

	format := c.DefaultQuery("format", defaultFormat)
	writer, err := output.GetWriter(format)
	if err != nil {
		s.reject(c, http.StatusBadRequest, "❌ "+err.Error())
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	header, err := c.FormFile(fileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.reject(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		case errors.Is(err, http.ErrMissingFile) && hasEmptyFilePart(c):
			s.reject(c, http.StatusBadRequest, msgNoFile)
		default:
			s.reject(c, http.StatusBadRequest, msgNoPart)
		}
		return
	}
	if header.Filename == "" {
		s.reject(c, http.StatusBadRequest, msgNoFile)
		return
	}
	if !strings.HasSuffix(header.Filename, ".py") {
		s.reject(c, http.StatusBadRequest, msgNotPython)
		return
	}

	f, err := header.Open()
	if err != nil {
		s.reject(c, http.StatusInternalServerError, fmt.Sprintf(msgUnexpectedFmt, err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.reject(c, http.StatusInternalServerError, fmt.Sprintf(msgUnexpectedFmt, err))
		return
	}

	report, err := s.analyzer.AnalyzeBytes(c.Request.Context(), filepath.Base(header.Filename), data)
	if err != nil {
		if errors.Is(err, review.ErrDecode) {
			s.reject(c, http.StatusBadRequest, msgNotText)
			return
		}
		s.logger.Error("analysis failed", "file", header.Filename, "error", err)
		s.reject(c, http.StatusInternalServerError, fmt.Sprintf(msgUnexpectedFmt, err))
		return
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, report); err != nil {
		s.reject(c, http.StatusInternalServerError, fmt.Sprintf(msgUnexpectedFmt, err))
		return
	}
	telemetry.ObserveUpload(http.StatusOK)
	c.Data(http.StatusOK, output.ContentType(format), buf.Bytes())
}

// hasEmptyFilePart reports whether the form carried the file field with no
// file selected. Browsers send such a part with an empty filename, which
// the multipart reader files under plain values.
func hasEmptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[fileField]
	return ok
}

func (s *Server) reject(c *gin.Context, code int, msg string) {
	telemetry.ObserveUpload(code)
	c.String(code, msg)
}

const indexPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>critic</title></head>
<body>
<h1>Python code review</h1>
<form method="post" action="/analyze" enctype="multipart/form-data">
<input type="file" name="pythonFile" accept=".py">
<button type="submit">Analyze</button>
</form>
</body>
</html>
`
