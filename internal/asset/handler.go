package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Overlay int64  `json:"overlay,omitempty"`
}

var acceptedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp", "image/tiff"}

// ReadUpload reads the multipart "file" field of r and decodes it.
func ReadUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (*Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, fmt.Errorf("file too large (max %dMB)", maxSize>>20)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing file field")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !accepted(contentType) {
		return nil, ErrUnsupportedFormat
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	img.Name = header.Filename
	return img, nil
}

func accepted(contentType string) bool {
	for _, t := range acceptedTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Response describes an uploaded image served under base.
func Response(img *Image, base string) UploadResponse {
	return UploadResponse{
		ID:     img.ID,
		URL:    fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), img.ID),
		Width:  img.Width,
		Height: img.Height,
		Type:   img.Format,
		Name:   img.Name,
	}
}

// Serve writes the embeddable bytes of img with caching headers.
func Serve(w http.ResponseWriter, img *Image) {
	// Asset IDs are unique, so contents are immutable
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", img.ContentType())
	w.Write(img.Data)
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
