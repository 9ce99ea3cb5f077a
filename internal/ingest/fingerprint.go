package ingest

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/yiblet/drawer/internal/format"
)

// dataSum fingerprints one format, variant included.
func dataSum(d format.Data) uint64 {
	h := xxhash.New()
	h.WriteString(string(d.Kind()))
	h.Write([]byte{0})

	switch v := d.(type) {
	case format.Text:
		h.WriteString(string(v))
	case format.RichText:
		h.Write(v)
	case format.Image:
		h.Write(v)
	case format.Files:
		for _, path := range v {
			h.WriteString(path)
			h.Write([]byte{0})
		}
	}
	return h.Sum64()
}

// contentSum fingerprints every captured format in order plus the main one.
func contentSum(c *format.Content) uint64 {
	buf := make([]byte, 0, 8*(len(c.Data)+1))
	for _, d := range c.Data {
		buf = binary.LittleEndian.AppendUint64(buf, dataSum(d))
	}
	buf = binary.LittleEndian.AppendUint64(buf, dataSum(c.Main))
	return xxhash.Sum64(buf)
}
