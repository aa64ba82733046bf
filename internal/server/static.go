package server

import (
	"github.com/gin-gonic/gin"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".txt":  "text/plain; charset=utf-8",
}

const indexDocument = "index.html"

// serveStatic serves files below publicDir for every path without an API route
func (s *Server) serveStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	path, ok := s.resolve(c.Request.URL.Path)
	if !ok {
		c.String(http.StatusForbidden, "Forbidden.")
		return
	}

	file, err := os.Open(path)
	if err != nil {
		c.String(http.StatusNotFound, "Not found.")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "Not found.")
		return
	}

	c.Header("Content-Type", contentType(path))
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}

// resolve maps a URL path into publicDir, refusing anything that lands outside it
func (s *Server) resolve(urlPath string) (string, bool) {
	root, err := filepath.Abs(s.publicDir)
	if err != nil {
		return "", false
	}

	if urlPath == "" || urlPath == "/" {
		urlPath = "/" + indexDocument
	}
	path := filepath.Join(root, filepath.FromSlash(urlPath))
	if !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

func contentType(path string) string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return "application/octet-stream"
}
