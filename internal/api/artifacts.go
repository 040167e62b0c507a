package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strconv"

	"github.com/JaimeStill/parity/pkg/handlers"
	"github.com/JaimeStill/parity/pkg/routes"
	"github.com/JaimeStill/parity/pkg/storage"
)

// Blob key roots written by the datasets and audits systems.
var artifactKinds = []string{"datasets", "audits"}

var errUnknownKind = errors.New("unknown artifact kind")

// artifactHandler exposes read-only access to the blobs the domain systems
// write. Keys outside the known roots are not reachable through it.
type artifactHandler struct {
	store       storage.System
	logger      *slog.Logger
	maxListSize int32
}

func newArtifactHandler(store storage.System, logger *slog.Logger, maxListSize int32) *artifactHandler {
	return &artifactHandler{
		store:       store,
		logger:      logger.With("handler", "artifacts"),
		maxListSize: maxListSize,
	}
}

func (h *artifactHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/artifacts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{kind}", Handler: h.list},
			{Method: "GET", Pattern: "/{kind}/{key...}", Handler: h.find},
			{Method: "GET", Pattern: "/download/{kind}/{key...}", Handler: h.download},
		},
	}
}

// artifactKey joins kind and key into a blob key, rejecting unknown kinds.
func artifactKey(kind, key string) (string, error) {
	if !slices.Contains(artifactKinds, kind) {
		return "", fmt.Errorf("%w: %q", errUnknownKind, kind)
	}
	return kind + "/" + key, nil
}

func (h *artifactHandler) fail(w http.ResponseWriter, err error) {
	status := storage.MapHTTPStatus(err)
	if errors.Is(err, errUnknownKind) {
		status = http.StatusNotFound
	}
	handlers.RespondError(w, h.logger, status, err)
}

// list pages through one kind's blobs. The optional owner parameter narrows
// the listing to a single dataset or audit ID.
func (h *artifactHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	prefix, err := artifactKey(r.PathValue("kind"), "")
	if err != nil {
		h.fail(w, err)
		return
	}
	if owner := q.Get("owner"); owner != "" {
		prefix += owner + "/"
	}

	maxResults, err := storage.ParseMaxResults(q.Get("max_results"), h.maxListSize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.store.List(r.Context(), prefix, q.Get("marker"), maxResults)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *artifactHandler) find(w http.ResponseWriter, r *http.Request) {
	key, err := artifactKey(r.PathValue("kind"), r.PathValue("key"))
	if err != nil {
		h.fail(w, err)
		return
	}

	meta, err := h.store.Find(r.Context(), key)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, meta)
}

func (h *artifactHandler) download(w http.ResponseWriter, r *http.Request) {
	key, err := artifactKey(r.PathValue("kind"), r.PathValue("key"))
	if err != nil {
		h.fail(w, err)
		return
	}

	blob, err := h.store.Download(r.Context(), key)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer blob.Body.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", blob.ContentType)
	hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	if blob.ContentLength > 0 {
		hdr.Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	if !blob.LastModified.IsZero() {
		hdr.Set("Last-Modified", blob.LastModified.UTC().Format(http.TimeFormat))
	}

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("artifact download interrupted", "key", key, "error", err)
	}
}
