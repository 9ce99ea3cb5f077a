package clipboard

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

const fileListHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
`

type plistDoc struct {
	XMLName xml.Name `xml:"plist"`
	Version string   `xml:"version,attr"`
	Paths   []string `xml:"array>string"`
}

// EncodeFileList renders paths as the property list document used by
// FormatFileList.
func EncodeFileList(paths []string) ([]byte, error) {
	body, err := xml.MarshalIndent(plistDoc{Version: "1.0", Paths: paths}, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode file list: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(fileListHeader)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DecodeFileList parses a FormatFileList document back into paths.
func DecodeFileList(data []byte) ([]string, error) {
	var doc plistDoc
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode file list: %w", err)
	}
	return doc.Paths, nil
}

// FilePathFromURL turns a FormatFileURL payload into a local path: the bytes
// are URL-decoded and any file:// scheme prefix is removed. Decoding is
// lenient; malformed escapes are kept verbatim.
func FilePathFromURL(data []byte) string {
	raw := strings.TrimSpace(string(data))
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return strings.ReplaceAll(decoded, "file://", "")
}

// FileURLFromPath is the inverse of FilePathFromURL.
func FileURLFromPath(path string) []byte {
	u := url.URL{Scheme: "file", Path: path}
	return []byte(u.String())
}
