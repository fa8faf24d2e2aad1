// handlers_seed.go - Seed fixture upload and activation handlers
package api

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/parser"
	"github.com/yard-planner/backend/internal/session"
	"github.com/yard-planner/backend/internal/storage"
	"go.uber.org/zap"
)

// SeedCatalog tracks the fixture new yard sessions start from. The fallback
// fixture (the configured seed file) is used until an upload is activated.
type SeedCatalog struct {
	mu       sync.RWMutex
	store    storage.SeedStore
	registry *parser.Registry
	fallback session.Seed
	active   session.Seed
	activeID string
	log      *zap.Logger
}

// NewSeedCatalog creates a catalog over store with fallback as the active seed.
func NewSeedCatalog(store storage.SeedStore, registry *parser.Registry, fallback session.Seed, log *zap.Logger) *SeedCatalog {
	if registry == nil {
		registry = parser.GetGlobalRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SeedCatalog{
		store:    store,
		registry: registry,
		fallback: fallback,
		active:   fallback,
		log:      log,
	}
}

// Active returns the seed for new sessions and the id of the uploaded file it
// came from, empty for the fallback.
func (c *SeedCatalog) Active() (session.Seed, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active, c.activeID
}

// Load decodes a stored fixture without activating it.
func (c *SeedCatalog) Load(id string) (session.Seed, *models.FileInfo, error) {
	info, err := c.store.Get(id)
	if err != nil {
		return session.Seed{}, nil, NewNotFoundError("seed", id)
	}
	path, err := c.store.GetFilePath(id)
	if err != nil {
		return session.Seed{}, nil, NewNotFoundError("seed", id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return session.Seed{}, nil, NewInternalError("failed to read seed", err)
	}
	fixture, err := c.registry.LoadBytes(info.Name, data)
	if err != nil {
		return session.Seed{}, nil, NewBadRequestError("invalid seed fixture", err)
	}
	return session.Seed{Name: info.Name, Records: fixture.Containers}, info, nil
}

// Activate makes a stored fixture the seed for new sessions. An empty id
// restores the fallback.
func (c *SeedCatalog) Activate(id string) (*models.FileInfo, error) {
	if id == "" {
		c.mu.Lock()
		c.active, c.activeID = c.fallback, ""
		c.mu.Unlock()
		c.log.Info("active seed reset to default", zap.String("seed", c.fallback.Name))
		return nil, nil
	}

	seed, _, err := c.Load(id)
	if err != nil {
		return nil, err
	}
	info, err := c.store.Update(id, models.SeedActive, len(seed.Records))
	if err != nil {
		return nil, NewInternalError("failed to update seed", err)
	}

	c.mu.Lock()
	c.active, c.activeID = seed, id
	c.mu.Unlock()

	c.log.Info("active seed changed", zap.String("id", id), zap.String("seed", seed.Name), zap.Int("containers", len(seed.Records)))
	return info, nil
}

// DefaultMaxSeedBytes caps a decoded seed fixture when no limit is configured.
const DefaultMaxSeedBytes = 4 << 20

var errSeedTooLarge = errors.New("seed fixture exceeds the size limit")

// SeedHandlerImpl implements the SeedHandler interface
type SeedHandlerImpl struct {
	store    storage.SeedStore
	catalog  *SeedCatalog
	maxBytes int64
}

// NewSeedHandler creates a new seed handler instance. maxBytes bounds the
// decoded fixture; zero or less means DefaultMaxSeedBytes.
func NewSeedHandler(store storage.SeedStore, catalog *SeedCatalog, maxBytes int64) SeedHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSeedBytes
	}
	return &SeedHandlerImpl{store: store, catalog: catalog, maxBytes: maxBytes}
}

// HandleUploadSeed accepts a fixture as base64 JSON, stores it and checks that it decodes
func (h *SeedHandlerImpl) HandleUploadSeed(c echo.Context) error {
	var req uploadSeedRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	// Decode base64 content
	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}
	var body io.Reader = bytes.NewReader(decoded)
	if req.Encoding == "gzip" {
		zr, err := gunzip(decoded)
		if err != nil {
			return NewBadRequestError("invalid gzip data", err)
		}
		defer zr.Close()
		body = zr
	}

	info, err := h.store.Save(req.Name, capSeed(body, h.maxBytes))
	switch {
	case errors.Is(err, errSeedTooLarge):
		return NewPayloadTooLargeError(fmt.Sprintf("seed fixture is larger than %d bytes", h.maxBytes))
	case err != nil && req.Encoding == "gzip":
		return NewBadRequestError("invalid gzip data", err)
	case err != nil:
		return NewInternalError("failed to save seed", err)
	}

	seed, _, loadErr := h.catalog.Load(info.ID)
	if loadErr != nil {
		if _, err := h.store.Update(info.ID, models.SeedInvalid, 0); err != nil {
			return NewInternalError("failed to update seed", err)
		}
		return loadErr
	}
	if info, err = h.store.Update(info.ID, models.SeedUploaded, len(seed.Records)); err != nil {
		return NewInternalError("failed to update seed", err)
	}

	if req.Activate {
		if info, err = h.catalog.Activate(info.ID); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleListSeeds returns recently uploaded fixtures and the active seed
func (h *SeedHandlerImpl) HandleListSeeds(c echo.Context) error {
	files, err := h.store.List(20)
	if err != nil {
		return NewInternalError("failed to list seeds", err)
	}
	active, activeID := h.catalog.Active()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"files":      files,
		"activeId":   activeID,
		"activeName": active.Name,
	})
}

// HandleSetActiveSeed selects the fixture new sessions start from
func (h *SeedHandlerImpl) HandleSetActiveSeed(c echo.Context) error {
	var req setActiveSeedRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	info, err := h.catalog.Activate(req.ID)
	if err != nil {
		return toAPIError(err)
	}
	active, _ := h.catalog.Active()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"file":       info,
		"activeName": active.Name,
		"containers": len(active.Records),
	})
}

// HandleDeleteSeed removes an uploaded fixture. Deleting the active seed
// puts new sessions back on the default one.
func (h *SeedHandlerImpl) HandleDeleteSeed(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.store.Get(id); err != nil {
		return NewNotFoundError("seed", id)
	}
	if _, activeID := h.catalog.Active(); activeID == id {
		if _, err := h.catalog.Activate(""); err != nil {
			return err
		}
	}
	if err := h.store.Delete(id); err != nil {
		return NewInternalError("failed to delete seed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type uploadSeedRequest struct {
	Name     string `json:"name"`
	Data     string `json:"data"`               // Base64-encoded content
	Encoding string `json:"encoding,omitempty"` // "gzip", "none"
	Activate bool   `json:"activate"`
}

func (r *uploadSeedRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	switch r.Encoding {
	case "", "none", "gzip":
	default:
		return NewBadRequestError(fmt.Sprintf("unsupported encoding %q", r.Encoding), nil)
	}
	return nil
}

// gunzip opens a gzip payload, checking the magic bytes first.
func gunzip(data []byte) (*gzip.Reader, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return nil, fmt.Errorf("not a gzip file")
	}
	return gzip.NewReader(bytes.NewReader(data))
}

// cappedReader fails with errSeedTooLarge once more than limit bytes are read.
type cappedReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func capSeed(r io.Reader, limit int64) io.Reader {
	return &cappedReader{r: io.LimitReader(r, limit+1), limit: limit}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		return n, errSeedTooLarge
	}
	return n, err
}

type setActiveSeedRequest struct {
	ID string `json:"id"`
}
