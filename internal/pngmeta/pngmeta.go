// Package pngmeta stores string metadata in PNG text chunks.
//
// image/png neither writes nor exposes text chunks, so Encode splices them
// into the encoder's output right after IHDR and Decode collects them
// before handing the stream to image/png.
package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gogpu/ggshot"
)

const (
	signatureLen = 8
	ihdrChunkLen = 4 + 4 + 13 + 4 // length, type, data, crc
	maxKeyword   = 79
)

var signature = []byte("\x89PNG\r\n\x1a\n")

// ErrNotPNG is returned when the data does not start with a PNG signature.
var ErrNotPNG = errors.New("pngmeta: not a PNG stream")

// Encode writes img as PNG to w with meta stored as text chunks. Keys are
// written in sorted order so equal inputs produce equal bytes. ASCII
// entries use tEXt, anything else uses uncompressed iTXt.
func Encode(w io.Writer, img image.Image, meta map[string]string) error {
	if err := validate(meta); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("pngmeta: encode: %w", err)
	}
	data := buf.Bytes()
	if len(meta) == 0 {
		_, err := w.Write(data)
		return err
	}

	split := signatureLen + ihdrChunkLen
	out := make([]byte, 0, len(data)+64*len(meta))
	out = append(out, data[:split]...)
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = appendTextChunk(out, k, meta[k])
	}
	out = append(out, data[split:]...)
	_, err := w.Write(out)
	return err
}

// Decode reads a PNG image and its text metadata from r.
func Decode(r io.Reader) (image.Image, map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("pngmeta: read: %w", err)
	}
	meta, err := Read(data)
	if err != nil {
		return nil, nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("pngmeta: decode: %w", err)
	}
	return img, meta, nil
}

// Read extracts tEXt and uncompressed iTXt entries from PNG data.
// It returns an empty map when the image carries no text.
func Read(data []byte) (map[string]string, error) {
	if !bytes.HasPrefix(data, signature) {
		return nil, ErrNotPNG
	}
	meta := make(map[string]string)
	p := data[signatureLen:]
	for len(p) >= 12 {
		n := binary.BigEndian.Uint32(p[:4])
		typ := string(p[4:8])
		if uint64(n)+12 > uint64(len(p)) {
			return nil, fmt.Errorf("pngmeta: chunk %q truncated", typ)
		}
		body := p[8 : 8+n]
		switch typ {
		case "tEXt":
			if k, v, ok := bytes.Cut(body, []byte{0}); ok {
				meta[latin1(k)] = latin1(v)
			}
		case "iTXt":
			if k, v, ok := parseITXt(body); ok {
				meta[k] = v
			}
		case "IEND":
			return meta, nil
		}
		p = p[12+n:]
	}
	return meta, nil
}

func validate(meta map[string]string) error {
	for k, v := range meta {
		if k == "" || len(k) > maxKeyword || strings.ContainsRune(k, 0) {
			return fmt.Errorf("%w: metadata key %q", ggshot.ErrInvalidArgument, k)
		}
		if strings.ContainsRune(v, 0) {
			return fmt.Errorf("%w: metadata value for %q contains NUL", ggshot.ErrInvalidArgument, k)
		}
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return fmt.Errorf("%w: metadata for %q is not UTF-8", ggshot.ErrInvalidArgument, k)
		}
	}
	return nil
}

func appendTextChunk(out []byte, key, value string) []byte {
	if isASCII(key) && isASCII(value) {
		body := make([]byte, 0, len(key)+1+len(value))
		body = append(body, key...)
		body = append(body, 0)
		body = append(body, value...)
		return appendChunk(out, "tEXt", body)
	}
	// keyword, NUL, compression flag, compression method, empty language
	// tag, NUL, empty translated keyword, NUL, text.
	body := make([]byte, 0, len(key)+5+len(value))
	body = append(body, key...)
	body = append(body, 0, 0, 0, 0, 0)
	body = append(body, value...)
	return appendChunk(out, "iTXt", body)
}

func appendChunk(out []byte, typ string, body []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(body))) //nolint:gosec // metadata values are far below 2^31
	start := len(out)
	out = append(out, typ...)
	out = append(out, body...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(out[start:]))
}

func parseITXt(body []byte) (string, string, bool) {
	key, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 2 || rest[0] != 0 {
		// Compressed iTXt is not produced by Encode and is skipped.
		return "", "", false
	}
	rest = rest[2:]
	_, rest, ok = bytes.Cut(rest, []byte{0}) // language tag
	if !ok {
		return "", "", false
	}
	_, rest, ok = bytes.Cut(rest, []byte{0}) // translated keyword
	if !ok {
		return "", "", false
	}
	return string(key), string(rest), true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func latin1(b []byte) string {
	if isASCII(string(b)) {
		return string(b)
	}
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
