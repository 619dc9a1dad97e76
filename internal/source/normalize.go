package source

import (
	"fmt"
	"os"
)

// Normalize strips a BOM, rewrites CRLF to LF and composes the text to NFC.
// The returned flags say which of those changed anything.
func Normalize(content []byte) ([]byte, Flags) {
	var flags Flags
	content, bom := removeBOM(content)
	if bom {
		flags |= HadBOM
	}
	content, crlf := normalizeCRLF(content)
	if crlf {
		flags |= NormalizedCRLF
	}
	content, nfc := normalizeNFC(content)
	if nfc {
		flags |= NormalizedNFC
	}
	return content, flags
}

// NormalizeString is Normalize for strings.
func NormalizeString(s string) string {
	out, flags := Normalize([]byte(s))
	if flags == 0 {
		return s
	}
	return string(out)
}

// Load reads and normalises a file from disk.
func Load(path string) (*File, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	content, flags := Normalize(content)
	return &File{Name: path, Content: content, Flags: flags}, nil
}

// Virtual wraps in-memory text, e.g. a fragment given on the command line.
func Virtual(name, text string, normalize bool) *File {
	content := []byte(text)
	var flags Flags
	if normalize {
		content, flags = Normalize(content)
	}
	return &File{Name: name, Content: content, Flags: flags}
}
