package utils

import (
	"math/rand/v2"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Unicode separators and BOM count as whitespace too, so "foto\u00a0perfil"
// slugs the same way as "foto perfil".
var whitespaceRun = regexp.MustCompile(`[\s\p{Z}\x{FEFF}]+`)

// SplitExt splits a base name into stem and extension. A leading dot
// does not start an extension, so ".env" has none.
func SplitExt(base string) (stem, ext string) {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base, ""
	}
	return base[:i], base[i:]
}

// UniqueFilename derives a stored name from the client's original file
// name: the stem is lowercased, whitespace runs become a single hyphen, and
// "-<unix-ms>-<random>" is appended. The extension keeps its case.
//
// Uniqueness is probabilistic; the store still refuses to overwrite.
func UniqueFilename(original string, now time.Time) string {
	// Browsers on Windows may send a full path.
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	stem, ext := SplitExt(base)
	stem = whitespaceRun.ReplaceAllString(strings.ToLower(stem), "-")
	if stem == "" {
		stem = "image"
	}
	return stem + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.Itoa(rand.IntN(1e9+1)) + ext
}
