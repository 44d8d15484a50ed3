package models

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrBinaryContent is returned when a share input is not text.
var ErrBinaryContent = errors.New("content looks binary")

// Extensions that are never shared as text snippets.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".pdf": true, ".zip": true, ".gz": true,
	".tar": true, ".7z": true, ".exe": true, ".dll": true, ".so": true,
	".dylib": true, ".class": true, ".o": true, ".mp3": true, ".mp4": true,
}

// sniffLen bounds how much content LooksBinary inspects.
const sniffLen = 8192

// LooksBinary reports whether content should be refused as a text snippet.
// name is optional and only its extension is consulted.
func LooksBinary(name string, content []byte) bool {
	if binaryExtensions[strings.ToLower(filepath.Ext(name))] {
		return true
	}
	if len(content) == 0 {
		return false
	}

	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
		// Don't judge a rune split at the cut
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}

	if bytes.IndexByte(head, 0) != -1 || !utf8.Valid(head) {
		return true
	}

	control := 0
	for _, b := range head {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			control++
		}
	}
	return control*10 > len(head)*3
}
