package domain

import (
	"mime"
	"strings"
)

var extToMime = map[string]string{
	"doc":   "application/msword",
	"docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":   "text/plain",
	"pdf":   "application/pdf",
	"xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"md":    "text/markdown",
	"epub":  "application/epub+zip",
	"html":  "text/html",
	"ahtml": "abbey/html",
}

var mimeToExt = func() map[string]string {
	m := make(map[string]string, len(extToMime))
	for ext, mt := range extToMime {
		m[mt] = ext
	}
	return m
}()

// DefaultMimetype is used for unknown extensions.
const DefaultMimetype = "application/octet-stream"

// MimetypeForExt maps a file extension (without the dot) to a mimetype.
func MimetypeForExt(ext string) string {
	if mt, ok := extToMime[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return mt
	}
	return DefaultMimetype
}

// ExtForMimetype maps a content type to a file extension without the dot.
// Parameters such as charset are ignored. Unknown types fall back to the
// subtype, so "image/png" gives "png".
func ExtForMimetype(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	if mediaType == "" {
		return ""
	}
	if ext, ok := mimeToExt[mediaType]; ok {
		return ext
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
		if _, suffix, hasSuffix := strings.Cut(sub, "+"); hasSuffix {
			return suffix
		}
		return sub
	}
	return ""
}
