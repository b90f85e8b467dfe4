// Package capture turns camera shots, uploads and the sample image into
// capture events with stable storage locations for the raw image and its
// annotated counterpart.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/larder/pkg/storage"
)

// Source identifies where a capture came from.
type Source string

const (
	SourceCamera Source = "camera"
	SourceUpload Source = "upload"
	SourceSample Source = "sample"
)

// ParseSource validates s as a capture source.
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceCamera, SourceUpload, SourceSample:
		return src, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
}

const (
	idLayout      = "20060102_150405"
	suffixLen     = 6
	annotatedTag  = "_bbox"
	imageExt      = ".jpg"
	maxIDAttempts = 3
)

// Event is a single capture. Events are values and never change once begun.
type Event struct {
	ID            string    `json:"id"`
	Source        Source    `json:"source"`
	RawKey        string    `json:"raw_key"`
	AnnotatedKey  string    `json:"annotated_key"`
	RawPath       string    `json:"raw_path"`
	AnnotatedPath string    `json:"annotated_path"`
	CreatedAt     time.Time `json:"created_at"`
}

// Config lays out capture storage. Directories and the sample image are
// storage keys relative to the storage root.
type Config struct {
	CaptureDir  string
	OutputDir   string
	SampleImage string
}

// Manager begins capture events and persists their raw images.
type Manager struct {
	store  storage.System
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

func New(store storage.System, cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("system", "capture"),
	}
}

// Begin starts a capture from source. Camera and upload captures write data
// to a fresh raw path before returning; if that write fails no event exists.
// Sample captures ignore data and reuse the configured sample image.
func (m *Manager) Begin(ctx context.Context, source Source, data io.Reader) (Event, error) {
	switch source {
	case SourceSample:
		return m.beginSample(ctx)
	case SourceCamera, SourceUpload:
		return m.beginImage(ctx, source, data)
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
}

func (m *Manager) beginImage(ctx context.Context, source Source, data io.Reader) (Event, error) {
	if data == nil {
		return Event{}, ErrEmptyImage
	}
	br := bufio.NewReader(data)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, ErrEmptyImage
		}
		return Event{}, fmt.Errorf("%w: read image: %v", ErrCaptureFailed, err)
	}

	created := m.now()
	id, err := m.newID(ctx, created)
	if err != nil {
		return Event{}, err
	}

	ev, err := m.event(id, source, path.Join(m.cfg.CaptureDir, id+imageExt), created)
	if err != nil {
		return Event{}, err
	}

	if _, err := m.store.Put(ctx, ev.RawKey, br); err != nil {
		m.logger.Error("capture write failed", "id", id, "error", err)
		return Event{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	m.logger.Info("capture stored", "id", id, "source", source, "path", ev.RawPath)
	return ev, nil
}

func (m *Manager) beginSample(ctx context.Context) (Event, error) {
	key := m.cfg.SampleImage
	if key == "" {
		return Event{}, ErrSampleUnavailable
	}

	ok, err := m.store.Exists(ctx, key)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrSampleUnavailable, err)
	}
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrSampleUnavailable, key)
	}

	id := strings.TrimSuffix(path.Base(key), path.Ext(key))
	return m.event(id, SourceSample, key, m.now())
}

func (m *Manager) event(id string, source Source, rawKey string, created time.Time) (Event, error) {
	annotatedKey := path.Join(m.cfg.OutputDir, id+annotatedTag+imageExt)

	rawPath, err := m.store.Path(rawKey)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	annotatedPath, err := m.store.Path(annotatedKey)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	return Event{
		ID:            id,
		Source:        source,
		RawKey:        rawKey,
		AnnotatedKey:  annotatedKey,
		RawPath:       rawPath,
		AnnotatedPath: annotatedPath,
		CreatedAt:     created,
	}, nil
}

// newID builds a second-resolution timestamp plus a random hex suffix,
// regenerating the suffix if a raw image with that name already exists.
func (m *Manager) newID(ctx context.Context, created time.Time) (string, error) {
	stamp := created.Format(idLayout)
	for range maxIDAttempts {
		id := stamp + "_" + randomSuffix()
		exists, err := m.store.Exists(ctx, path.Join(m.cfg.CaptureDir, id+imageExt))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique identifier", ErrCaptureFailed)
}

func randomSuffix() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:suffixLen]
}

var acceptedTypes = []string{"image/jpeg", "image/png"}

// CheckImage sniffs data and rejects anything other than JPEG or PNG.
func CheckImage(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	if ct := http.DetectContentType(data); !slices.Contains(acceptedTypes, ct) {
		return fmt.Errorf("%w: got %s", ErrUnsupportedImage, ct)
	}
	return nil
}
