package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/metrics"
	"github.com/rpupo63/portfolio-site-backend/services"
)

// multipartOverhead leaves room for boundaries and part headers on top of the file limit.
const multipartOverhead = 64 << 10

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	uploader  services.Uploader
	maxBytes  int64
}

func newUploadHandler(uploader services.Uploader, maxBytes int64, notifier ErrorNotifier) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()

	return uploadHandler{
		responder: NewResponder(logger, notifier),
		logger:    logger,
		uploader:  uploader,
		maxBytes:  maxBytes,
	}
}

// uploadImage stores one image and returns its public URL
// @Summary Upload image
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 200 {object} UploadResponse "Public URL of the image"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing file"
// @Failure 413 {object} ErrorResponse "Request Entity Too Large"
// @Failure 415 {object} ErrorResponse "Unsupported Media Type"
// @Failure 502 {object} ErrorResponse "Bad Gateway - Image host failed"
// @Router /uploads [post]
func (h uploadHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Authentication handled by middleware

		if h.uploader == nil {
			h.responder.WriteError(w, errs.NewUnavailableError("image uploads are not configured"))
			return
		}

		file, err := h.readImage(w, r)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			h.responder.WriteError(w, err)
			return
		}

		url, err := h.uploader.Upload(r.Context(), file)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("failed").Inc()
			h.logger.Error().Err(err).Str("filename", file.Filename).Msg("image upload failed")
			h.responder.WriteError(w, errs.NewUpstreamError("could not store image", err))
			return
		}

		metrics.UploadsTotal.WithLabelValues("stored").Inc()
		metrics.UploadBytes.Observe(float64(file.Size))
		h.logger.Info().Str("url", url).Int64("size", file.Size).Msg("image uploaded")
		h.responder.WriteJSON(w, UploadResponse{URL: url})
	}
}

// readImage pulls the "file" part out of the form and sniffs its content type.
func (h uploadHandler) readImage(w http.ResponseWriter, r *http.Request) (services.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return services.Upload{}, errs.NewMaxBodySizeExceededError(h.maxBytes)
		case errors.Is(err, http.ErrNotMultipart):
			return services.Upload{}, errs.NewUnsupportedMediaTypeError(r.Header.Get("Content-Type"), []string{"multipart/form-data"})
		default:
			return services.Upload{}, errs.NewMalformedPayloadError("multipart", err)
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return services.Upload{}, errs.NewMissingRequiredFieldError("file")
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		return services.Upload{}, errs.NewMaxBodySizeExceededError(h.maxBytes)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return services.Upload{}, errs.NewMalformedPayloadError("multipart", err)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return services.Upload{}, errs.NewUnsupportedMediaTypeError(contentType, allowedImageTypes)
	}

	return services.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}, nil
}
