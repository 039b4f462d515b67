// Package loader reads a sales dataset from a local file or an HTTP(S) URL
// and turns it into a table.Table. Delimited text and .xlsx workbooks are
// supported; column types are inferred per column.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	apperrors "salesprep/internal/errors"
	"salesprep/internal/table"
	"salesprep/internal/validation"
)

// Source modes
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
	SourceAuto   = "auto"
)

// maxRemoteBytes caps a remote download
const maxRemoteBytes = 512 << 20

// Options selects and describes the dataset to load
type Options struct {
	Source    string
	LocalPath string
	RemoteURL string

	// Delimiter of text sources; 0 detects it from the header line
	Delimiter rune
	// NAValues are cell tokens read as missing, compared case-insensitively
	// after trimming. Nil means DefaultNAValues.
	NAValues []string

	HTTPClient *http.Client
	Timeout    time.Duration
}

// Origin says where a dataset actually came from
type Origin struct {
	Kind     string
	Location string
}

// String renders the origin for logs and reports
func (o Origin) String() string {
	return o.Kind + ":" + o.Location
}

// Loader performs a single load attempt; there is no retry.
type Loader struct {
	opts      Options
	logger    *slog.Logger
	validator *validation.FileValidator
}

// New creates a loader
func New(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Loader{
		opts:      opts,
		logger:    logger.With(slog.String("component", "loader")),
		validator: validation.NewFileValidator(logger),
	}
}

// Load is a convenience for New(opts, nil).Load(ctx)
func Load(ctx context.Context, opts Options) (*table.Table, error) {
	t, _, err := New(opts, nil).Load(ctx)
	return t, err
}

// Resolve decides which location a load will read. For SourceAuto the local
// file wins when it exists.
func Resolve(opts Options) (Origin, error) {
	switch opts.Source {
	case SourceLocal, "":
		return Origin{Kind: SourceLocal, Location: opts.LocalPath}, nil
	case SourceRemote:
		return Origin{Kind: SourceRemote, Location: opts.RemoteURL}, nil
	case SourceAuto:
		if opts.LocalPath != "" {
			if info, err := os.Stat(opts.LocalPath); err == nil && !info.IsDir() {
				return Origin{Kind: SourceLocal, Location: opts.LocalPath}, nil
			}
		}
		if opts.RemoteURL != "" {
			return Origin{Kind: SourceRemote, Location: opts.RemoteURL}, nil
		}
		return Origin{}, apperrors.NewFileLoadError(
			fmt.Sprintf("local file %q not found and no remote_url configured", opts.LocalPath), nil)
	default:
		return Origin{}, apperrors.NewFileLoadError(fmt.Sprintf("unknown source %q", opts.Source), nil)
	}
}

// Load reads and parses the configured source
func (l *Loader) Load(ctx context.Context) (*table.Table, Origin, error) {
	origin, err := Resolve(l.opts)
	if err != nil {
		return nil, Origin{}, err
	}

	l.logger.InfoContext(ctx, "Loading dataset",
		slog.String("source", origin.Kind),
		slog.String("location", origin.Location))

	var (
		data []byte
		name string
	)
	switch origin.Kind {
	case SourceRemote:
		data, err = l.fetch(ctx, origin.Location)
		name = remoteName(origin.Location)
	default:
		data, err = l.readLocal(origin.Location)
		name = origin.Location
	}
	if err != nil {
		return nil, origin, err
	}

	t, err := Parse(data, name, l.opts)
	if err != nil {
		return nil, origin, err
	}

	l.logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()))
	return t, origin, nil
}

func (l *Loader) readLocal(p string) ([]byte, error) {
	if p == "" {
		return nil, apperrors.NewFileLoadError("local_path is empty", nil)
	}
	if err := l.validator.ValidateSourceFile(p); err != nil {
		return nil, apperrors.NewFileLoadError(fmt.Sprintf("cannot read local file %s", p), err).
			WithContext("path", p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, apperrors.NewFileLoadError(fmt.Sprintf("cannot read local file %s", p), err).
			WithContext("path", p)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, apperrors.NewFileLoadError(fmt.Sprintf("invalid remote URL %q", rawURL), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewFileLoadError("failed to build request", err)
	}
	req.Header.Set("User-Agent", "salesprep")

	resp, err := l.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.NewFileLoadError(fmt.Sprintf("failed to download %s", rawURL), err).
			WithContext("url", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewFileLoadError(
			fmt.Sprintf("download %s returned HTTP %d", rawURL, resp.StatusCode), nil).
			WithContext("url", rawURL).
			WithContext("status", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
	if err != nil {
		return nil, apperrors.NewFileLoadError(fmt.Sprintf("failed to read body of %s", rawURL), err)
	}
	return data, nil
}

// remoteName returns the URL path so the extension can select the parser
func remoteName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return path.Base(u.Path)
	}
	return rawURL
}
