package main

import (
	"fmt"
	"os"
)

// Pager maps a 1-based page number to the page's raw bytes via positional
// reads — no shared file offset, no page cache required (one is permitted
// but not needed at this scale; see DESIGN.md). The 100-byte file-header
// quirk on page 1 is the page decoder's concern, not the pager's: ReadPage
// always returns exactly PageSize bytes starting at (n-1)*PageSize.
type Pager struct {
	file     *os.File
	pageSize uint16
}

// NewPager opens filePath read-only and parses just enough of the 100-byte
// file header to learn the page size (bytes 16..18, big-endian u16).
func NewPager(filePath string) (*Pager, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, NewDatabaseError("open_database_file", err, map[string]interface{}{
			"path": filePath,
		})
	}

	header := make([]byte, 18)
	if _, err := file.ReadAt(header, 0); err != nil {
		file.Close()
		return nil, NewDatabaseError("read_file_header", ErrShortRead, map[string]interface{}{
			"path": filePath,
		})
	}

	pageSize := uint16(header[16])<<8 | uint16(header[17])

	return &Pager{file: file, pageSize: pageSize}, nil
}

// PageSize returns the database's page size in bytes.
func (p *Pager) PageSize() uint16 {
	return p.pageSize
}

// ReadPage reads page n (1-based) in full.
func (p *Pager) ReadPage(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, NewDatabaseError("read_page", fmt.Errorf("page numbers are 1-based, got 0"), nil)
	}

	offset := int64(n-1) * int64(p.pageSize)
	buf := make([]byte, p.pageSize)

	read, err := p.file.ReadAt(buf, offset)
	if read != int(p.pageSize) {
		return nil, NewDatabaseError("read_page", ErrShortRead, map[string]interface{}{
			"page":      n,
			"want_size": p.pageSize,
			"got_size":  read,
		})
	}
	if err != nil {
		return nil, NewDatabaseError("read_page", err, map[string]interface{}{
			"page":   n,
			"offset": offset,
		})
	}

	return buf, nil
}

// Close releases the underlying file handle.
func (p *Pager) Close() error {
	return p.file.Close()
}
