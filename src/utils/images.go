package utils

import "bytes"

// DetectImageExtension sniffs the file extension from magic bytes.
func DetectImageExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return "jpg"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 16 && bytes.Contains(data[8:16], []byte("WEBP")):
		return "webp"
	default:
		return "bin"
	}
}
