package source

// Flags records which normalisations were applied to a piece of source.
type Flags uint8

const (
	// HadBOM means a leading UTF-8 byte order mark was removed.
	HadBOM Flags = 1 << iota
	// NormalizedCRLF means at least one \r\n was rewritten to \n.
	NormalizedCRLF
	// NormalizedNFC means the text was not in Unicode NFC form.
	NormalizedNFC
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// File is a named piece of source text, e.g. the init script or a fragment
// read from the command line.
type File struct {
	Name    string
	Content []byte
	Flags   Flags
}

// Text returns the content as a string.
func (f *File) Text() string {
	return string(f.Content)
}
