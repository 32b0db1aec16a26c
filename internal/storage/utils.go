package storage

import (
	"path"
	"strings"
)

var contentTypes = map[string]string{
	".json":    "application/json",
	".geojson": "application/geo+json",
	".html":    "text/html",
	".png":     "image/png",
	".txt":     "text/plain",
}

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
