package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"grant-intake/internal/forms"
)

const (
	fileField = "fileUpload"

	// multipartMemory is kept in memory; larger parts spill to temp files.
	multipartMemory = 1 << 20
)

// parsePayload reads a JSON or multipart body into a payload. Uploaded files
// are stored in the upload directory; the returned cleanup removes them.
func (h *Handlers) parsePayload(c *gin.Context) (forms.Payload, func(), error) {
	noop := func() {}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes)

	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		payload := forms.Payload{}
		if err := c.ShouldBindJSON(&payload); err != nil {
			return nil, noop, fmt.Errorf("decode json body: %w", err)
		}
		// A JSON body cannot carry a file handle.
		delete(payload, fileField)
		return payload, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, fmt.Errorf("parse multipart body: %w", err)
	}

	payload := forms.Payload{}
	for key, values := range form.Value {
		if key == fileField || len(values) == 0 {
			continue
		}
		payload[key] = values[0]
	}

	headers := form.File[fileField]
	if len(headers) == 0 {
		return payload, noop, nil
	}
	header := headers[0]
	if header.Size == 0 && header.Filename == "" {
		return payload, noop, nil
	}

	upload, err := h.storeUpload(c, header)
	if err != nil {
		return nil, noop, err
	}
	payload[fileField] = upload
	return payload, func() { h.removeUpload(upload.Filepath) }, nil
}

func (h *Handlers) storeUpload(c *gin.Context, header *multipart.FileHeader) (*forms.FileUpload, error) {
	mimeType, err := sniffContentType(header)
	if err != nil {
		return nil, err
	}

	dst := filepath.Join(h.config.UploadDir, "upload-"+uuid.NewString())
	if err := c.SaveUploadedFile(header, dst); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &forms.FileUpload{
		Filepath:         dst,
		OriginalFilename: filepath.Base(header.Filename),
		MimeType:         mimeType,
		Size:             header.Size,
	}, nil
}

// sniffContentType trusts the file contents over the client's header.
func sniffContentType(header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	mimeType := http.DetectContentType(buf[:n])
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType, nil
}

func (h *Handlers) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("failed to remove upload", map[string]interface{}{"path": path, "error": err})
	}
}
