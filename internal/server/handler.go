package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/internal/tagger"
)

const multipartMemory = 32 << 20

type apiError struct {
	Error string `json:"error"`
}

type hashtagsResp struct {
	Hashtags []string `json:"hashtags"`
}

type healthResp struct {
	Ok        bool      `json:"ok"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler serves POST /hashtags
type Handler struct {
	tagger    Tagger
	maxUpload int64
	allowed   map[string]struct{}
}

func NewHandler(t Tagger, maxUpload int64, extensions []string) *Handler {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Handler{tagger: t, maxUpload: maxUpload, allowed: allowed}
}

// Hashtags validates the multipart upload in a fixed order: file part, language,
// filename, extension. The first failure wins.
func (h *Handler) Hashtags(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, apiError{Error: "File too large"})
			return
		}
		logger.Debug("Invalid multipart body: %v", err)
		writeJSON(w, http.StatusBadRequest, apiError{Error: "No file part"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	// A file part sent without a filename lands in Value, not File
	files := r.MultipartForm.File["file"]
	_, blankFile := r.MultipartForm.Value["file"]
	if len(files) == 0 && !blankFile {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "No file part"})
		return
	}

	language := strings.TrimSpace(formValue(r.MultipartForm, "language"))
	if language == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "No language selected"})
		return
	}

	if len(files) == 0 || files[0].Filename == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "No selected file"})
		return
	}
	fh := files[0]

	if !h.allowedFile(fh.Filename) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "File type not allowed"})
		return
	}

	data, err := readFile(fh)
	if err != nil {
		if tooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, apiError{Error: "File too large"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Error reading file: " + err.Error()})
		return
	}

	res, err := h.tagger.Tag(r.Context(), tagger.Request{
		Image:       data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Language:    language,
		Topic:       formValue(r.MultipartForm, "topic"),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Error analyzing image: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, hashtagsResp{Hashtags: res.Hashtags})
}

func (h *Handler) allowedFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	_, ok := h.allowed[ext]
	return ok
}

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResp{Ok: true, Version: version, Timestamp: time.Now()})
	}
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response: %v", err)
	}
}
