package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"swimlms/internal/backend"
)

const maxUpload = 20 << 20

// POST /api/media: multipart (file, title, alt) пересылается в бэкенд.
// В ответе URL уже приведён к строке (или заглушке).
func UploadMediaHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
		file, hdr, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart file not found (field name 'file')"})
			return
		}
		defer file.Close()

		title := strings.TrimSpace(c.PostForm("title"))
		if title == "" {
			title = strings.TrimSuffix(hdr.Filename, filepath.Ext(hdr.Filename))
		}
		rec, err := srv.Backend.UploadMedia(c.Request.Context(), sessionOf(c), backend.MediaUpload{
			Filename: filepath.Base(hdr.Filename),
			Content:  file,
			Title:    title,
			Alt:      strings.TrimSpace(c.PostForm("alt")),
		})
		if err != nil {
			srv.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":    rec.ID,
			"url":   rec.URL,
			"title": rec.Title,
			"alt":   rec.Alt,
		})
	}
}
