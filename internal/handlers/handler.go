package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"chat-backend/internal/apperr"
	"chat-backend/internal/community"
	"chat-backend/internal/config"
	"chat-backend/internal/metrics"
	"chat-backend/internal/storage"
)

// Handler serves the REST API.
type Handler struct {
	db        *gorm.DB
	community *community.Service
	metrics   *metrics.MetricsService
	cfg       config.ServerConfig
}

func New(db *gorm.DB, svc *community.Service, ms *metrics.MetricsService, cfg config.ServerConfig) *Handler {
	return &Handler{db: db, community: svc, metrics: ms, cfg: cfg}
}

type errorResponse = apperr.Response

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	apperr.Write(w, err)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid JSON body: %v", err)
	}
	return nil
}

// pathID parses the {name} path wildcard as a record id.
func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, apperr.NotFound(name, raw)
	}
	return uint(id), nil
}

// parseForm parses a multipart or urlencoded body, bounded by the
// configured upload size.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(h.cfg.MaxUploadSize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Upload exceeds the maximum size of %d MB", h.cfg.MaxUploadSize/(1024*1024))
		}
		return apperr.Validation("Failed to parse form")
	}
	return nil
}

// formString returns the submitted value of key, or nil when it is absent.
func formString(r *http.Request, key string) *string {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	v := r.PostForm.Get(key)
	return &v
}

func formUint(r *http.Request, key string) (*uint, error) {
	raw := formString(r, key)
	if raw == nil {
		return nil, nil
	}
	id, err := strconv.ParseUint(*raw, 10, 0)
	if err != nil {
		return nil, apperr.FieldValidation(key, "Incorrect type. Expected pk value.")
	}
	v := uint(id)
	return &v, nil
}

// formFile reads an uploaded file into memory. Absent files yield nil.
func formFile(r *http.Request, key string) (*storage.Upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[key]) == 0 {
		return nil, nil
	}
	header := r.MultipartForm.File[key][0]
	f, err := header.Open()
	if err != nil {
		return nil, apperr.FieldValidation(key, "Failed to read upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.FieldValidation(key, "Failed to read upload")
	}
	if len(data) == 0 {
		return nil, apperr.FieldValidation(key, "The submitted file is empty.")
	}
	return &storage.Upload{Filename: header.Filename, Data: data}, nil
}

// formClear reports whether the client asked to remove the file in key,
// by sending the field as an empty value.
func formClear(r *http.Request, key string) bool {
	v := formString(r, key)
	return v != nil && *v == ""
}
