package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/induohouse/induoweb/internal/listings"
)

const maxPhotoSize = 10 * 1024 * 1024 // 10 MB per image

var errUnsupportedImage = errors.New("Nieobsługiwany format zdjęcia (JPG, PNG, GIF, WebP)")

// allowedImageTypes is the set of MIME types accepted for listing photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the stdlib sniffer has no
// WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readImages loads every file posted under field, in order. Empty file
// inputs are skipped; any rejected file fails the whole set.
func (s *Server) readImages(r *http.Request, field string) ([]listings.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []listings.ImageUpload
	for _, fh := range r.MultipartForm.File[field] {
		if fh.Size == 0 {
			continue
		}
		img, err := s.readImage(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func (s *Server) readImage(fh *multipart.FileHeader) (listings.ImageUpload, error) {
	if fh.Size > maxPhotoSize {
		return listings.ImageUpload{}, fmt.Errorf("Zdjęcie %s przekracza 10 MB", fh.Filename)
	}
	file, err := fh.Open()
	if err != nil {
		return listings.ImageUpload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		return listings.ImageUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return listings.ImageUpload{}, errUnsupportedImage
	}
	return listings.ImageUpload{
		Filename:    fh.Filename,
		ContentType: mimeType,
		Data:        bytes.NewReader(data),
	}, nil
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize + 1024*1024); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	_, fh, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	img, err := s.readImage(fh)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img.IsPrimary, _ = strconv.ParseBool(r.FormValue("isPrimary"))

	v := visitorFrom(r)
	if _, err := s.catalog.AddImage(r.Context(), v, id, img); err != nil {
		if s.signedOut(w, r, err) {
			return
		}
		s.logger.Error("upload image failed", "listing_id", id, "error", err)
		http.Error(w, listings.UserMessage(err, listings.MsgImageFailed), http.StatusBadGateway)
		return
	}

	redirect(w, r, listingURL(id)+"/edit")
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}
	imageID, err := strconv.ParseInt(r.PathValue("imageId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid image id", http.StatusBadRequest)
		return
	}

	v := visitorFrom(r)
	if err := s.catalog.RemoveImage(r.Context(), v, id, imageID); err != nil {
		if s.signedOut(w, r, err) {
			return
		}
		s.logger.Error("delete image failed", "listing_id", id, "image_id", imageID, "error", err)
		http.Error(w, listings.UserMessage(err, listings.MsgImageFailed), http.StatusBadGateway)
		return
	}

	// The image tile is swapped for nothing.
	w.WriteHeader(http.StatusOK)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
