package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"magiceraser/internal/domain"
	"magiceraser/internal/mask"
	"magiceraser/pkg/zip"
)

var uploadTypes = map[string]bool{
	"image/png":                true,
	"image/jpeg":               true,
	"image/jpg":                true,
	"image/webp":               true,
	"application/octet-stream": true,
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := a.Sessions.Create()
	a.Logger.Info().Str("session_id", s.ID()).Msg("session created")
	a.json(w, http.StatusCreated, s.Snapshot())
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage loads an image from a multipart "image" field or from a raw
// image body. The container width comes from the "container_width" form
// field or query parameter.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		data  []byte
		width string
		err   error
	)
	if strings.HasPrefix(mediaType, "multipart/") {
		data, width, err = a.readMultipartImage(r)
	} else {
		if mediaType != "" && !uploadTypes[mediaType] {
			err = fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, mediaType)
		} else {
			data, err = io.ReadAll(r.Body)
		}
		width = r.URL.Query().Get("container_width")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("image exceeds %d bytes", tooLarge.Limit))
			return
		}
		a.fail(w, r, err)
		return
	}

	containerWidth := 0
	if width != "" {
		if containerWidth, err = strconv.Atoi(width); err != nil || containerWidth <= 0 {
			a.fail(w, r, fmt.Errorf("%w: container_width %q", domain.ErrInvalidViewport, width))
			return
		}
	}
	if err := s.Load(data, containerWidth); err != nil {
		a.fail(w, r, err)
		return
	}
	snap := s.Snapshot()
	a.Logger.Info().
		Str("session_id", s.ID()).
		Int("bytes", len(data)).
		Int("native_width", snap.NativeWidth).
		Int("native_height", snap.NativeHeight).
		Float64("scale", snap.Scale).
		Msg("image loaded")
	a.json(w, http.StatusOK, snap)
}

func (a *App) readMultipartImage(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", err
		}
		return nil, "", malformed(err)
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", malformed(fmt.Errorf("image field: %w", err))
	}
	defer file.Close()
	if ct := header.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !uploadTypes[mt] {
			return nil, "", fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, ct)
		}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, r.FormValue("container_width"), nil
}

type viewportRequest struct {
	ContainerWidth int `json:"container_width"`
}

func (a *App) SetViewport(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := s.Resize(req.ContainerWidth); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

type brushRequest struct {
	Size int `json:"size"`
}

func (a *App) SetBrush(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var req brushRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := s.SetBrush(req.Size); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

type pointerRequest struct {
	Events []mask.RawPointer `json:"events"`
}

// Pointer applies a batch of raw pointer events in order.
func (a *App) Pointer(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var req pointerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	events, err := mask.NormalizeAll(req.Events)
	if err != nil {
		a.fail(w, r, malformed(err))
		return
	}
	if err := s.Pointer(events...); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) ClearMask(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := s.ClearMask(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

// MaskPNG serves the mask at display resolution, or at the source resolution
// with ?native=1.
func (a *App) MaskPNG(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	native, _ := strconv.ParseBool(r.URL.Query().Get("native"))
	data, err := s.MaskPNG(native)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.bytes(w, "image/png", "", data)
}

func (a *App) DisplayPNG(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	data, err := s.DisplayPNG()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.bytes(w, "image/png", "", data)
}

func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	res, err := s.Result()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.bytes(w, res.MIME, "", res.Data)
}

// Bundle downloads the source, the native mask and the result as one zip.
func (a *App) Bundle(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	source, sourceMIME, err := s.Source()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	maskPNG, err := s.MaskPNG(true)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	assets := []zip.Asset{
		{Filename: "source." + extension(sourceMIME), MIME: sourceMIME, Data: source},
		{Filename: "mask.png", MIME: "image/png", Data: maskPNG},
	}
	if res, err := s.Result(); err == nil {
		assets = append(assets, zip.Asset{Filename: "result." + extension(res.MIME), MIME: res.MIME, Data: res.Data})
	}
	archive, err := zip.ArchiveAssets(assets, time.Now().UTC())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.bytes(w, "application/zip", fmt.Sprintf("magic-eraser-%s.zip", s.ID()), archive)
}

func (a *App) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := s.Reset(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) bytes(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
