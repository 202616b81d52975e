package extract

import (
	"bytes"

	"github.com/standardbeagle/dextract/internal/types"
)

var magicNumbers = []struct {
	name   string
	prefix []byte
}{
	{"gzip", []byte{0x1F, 0x8B}},
	{"zip", []byte{0x50, 0x4B, 0x03, 0x04}},
	{"zip", []byte{0x50, 0x4B, 0x05, 0x06}},
	{"png", []byte{0x89, 0x50, 0x4E, 0x47}},
	{"jpeg", []byte{0xFF, 0xD8, 0xFF}},
	{"gif", []byte{0x47, 0x49, 0x46, 0x38}},
	{"pdf", []byte{0x25, 0x50, 0x44, 0x46}},
	{"elf", []byte{0x7F, 0x45, 0x4C, 0x46}},
	{"mach-o", []byte{0xCA, 0xFE, 0xBA, 0xBE}},
	{"mach-o", []byte{0xCF, 0xFA, 0xED, 0xFE}},
	{"wasm", []byte{0x00, 0x61, 0x73, 0x6D}},
}

// binaryKind inspects the first bytes of content and returns a short name
// for the detected binary format, or "" for text.
func binaryKind(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	sample := content
	if len(sample) > types.BinaryPreCheckBytes {
		sample = sample[:types.BinaryPreCheckBytes]
	}

	for _, m := range magicNumbers {
		if bytes.HasPrefix(sample, m.prefix) {
			return m.name
		}
	}

	// UTF-8 never contains NUL; UTF-16 text is treated as binary too
	nulls, controls := 0, 0
	for _, b := range sample {
		if b == 0 {
			nulls++
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			controls++
		}
	}
	if nulls > len(sample)/100 {
		return "nul bytes"
	}
	if controls > len(sample)*30/100 {
		return "control bytes"
	}
	return ""
}
