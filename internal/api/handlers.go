package api

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"imgchat/internal/logger"
	"imgchat/internal/models"
	"imgchat/internal/service/chat"
	"imgchat/internal/session"
	"imgchat/internal/upload"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	multipartMemory = 8 << 20
	// room for the non-file form fields and multipart framing
	formOverhead = 1 << 20
	sniffLen     = 512
)

// imageExtensions covers formats http.DetectContentType does not recognise.
var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".heic": "image/heic",
	".heif": "image/heif",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
}

// Handler wires HTTP routes to the chat service and the session transcript.
type Handler struct {
	chat      *chat.Service
	sessions  *session.Manager
	uploads   *upload.Dir
	maxUpload int64
}

// NewHandler constructs a Handler instance.
func NewHandler(chatService *chat.Service, sessions *session.Manager, uploads *upload.Dir, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		chat:      chatService,
		sessions:  sessions,
		uploads:   uploads,
		maxUpload: maxUpload,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))
	router.GET("/health", h.health)
	router.GET("/uploads/:filename", h.uploadedFile)

	chatRoutes := router.Group("/")
	chatRoutes.Use(h.sessions.Middleware())
	chatRoutes.GET("", h.index)
	chatRoutes.POST("", h.submit)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) uploadedFile(c *gin.Context) {
	path, err := h.uploads.Path(c.Param("filename"))
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "not found")
		return
	}
	c.File(path)
}

func (h *Handler) index(c *gin.Context) {
	_, t, ok := h.loadTranscript(c)
	if !ok {
		return
	}
	h.render(c, t)
}

func (h *Handler) submit(c *gin.Context) {
	id, t, ok := h.loadTranscript(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+formOverhead)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	if _, ok := c.GetPostForm("clear"); ok {
		h.chat.Clear(t)
		if !h.saveTranscript(c, id, t) {
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader.Filename == "" {
		h.render(c, t)
		return
	}
	if fileHeader.Size > h.maxUpload {
		c.String(http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.String(http.StatusBadRequest, "open file failed")
		return
	}
	defer f.Close()

	contentType, err := imageContentType(fileHeader.Filename, f)
	if err != nil {
		c.String(http.StatusBadRequest, "read file failed")
		return
	}
	if contentType == "" {
		c.String(http.StatusBadRequest, "unsupported file type")
		return
	}

	file, err := h.chat.Submit(c.Request.Context(), t, fileHeader.Filename, contentType, f)
	if err != nil {
		logger.WithFields(logrus.Fields{"file": fileHeader.Filename}).Errorf("upload failed: %v", err)
		c.String(http.StatusInternalServerError, "save file failed")
		return
	}
	if !h.saveTranscript(c, id, t) {
		return
	}
	logger.WithFields(logrus.Fields{
		"file":    file.DisplayName,
		"storage": file.StorageName,
		"mime":    file.MimeType,
	}).Info("image processed")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) render(c *gin.Context, t *models.Transcript) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Chat": t.Entries,
	})
}

func (h *Handler) loadTranscript(c *gin.Context) (string, *models.Transcript, bool) {
	id, ok := session.IDFromContext(c)
	if !ok {
		c.String(http.StatusInternalServerError, "session unavailable")
		return "", nil, false
	}
	t, err := h.sessions.Load(c.Request.Context(), id)
	if err != nil {
		logger.Errorf("load session: %v", err)
		c.String(http.StatusInternalServerError, "session unavailable")
		return "", nil, false
	}
	return id, t, true
}

func (h *Handler) saveTranscript(c *gin.Context, id string, t *models.Transcript) bool {
	if err := h.sessions.Save(c.Request.Context(), id, t); err != nil {
		logger.Errorf("save session: %v", err)
		c.String(http.StatusInternalServerError, "session unavailable")
		return false
	}
	return true
}

// imageContentType returns the image type of the upload, judged by its leading
// bytes first and its extension second. It is empty for anything else.
func imageContentType(filename string, f io.ReadSeeker) (string, error) {
	sniffed, err := sniffContentType(f)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}
	return imageExtensions[strings.ToLower(filepath.Ext(filename))], nil
}

// sniffContentType inspects the leading bytes and rewinds the reader.
func sniffContentType(f io.ReadSeeker) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
