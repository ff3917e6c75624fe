package etl

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/medrates/pricing-backend/internal/logger"
)

// DefaultChunkSize bounds how many rows are held in memory per chunk.
const DefaultChunkSize = 1000

const probeRows = 10

// Candidate encodings in preference order; a nil charmap means plain UTF-8.
// CMS files ship in a mix of these.
var probeEncodings = []struct {
	name string
	cm   *charmap.Charmap
}{
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
	{"utf-8", nil},
}

// Chunk is a bounded slice of parsed rows, processed as a unit.
type Chunk struct {
	Index int
	Rows  []Row
}

// ChunkReader streams a delimited file as bounded-size chunks. The encoding
// is picked by probing a small read with each candidate in order; when every
// probe fails the file is reopened with the most permissive encoding and
// invalid bytes replaced rather than aborting the run.
type ChunkReader struct {
	log       *logger.Logger
	file      *os.File
	csv       *csv.Reader
	header    []string
	chunkSize int
	index     int
	encoding  string
	skipped   int
}

func NewChunkReader(path string, chunkSize int, baseLog *logger.Logger) (*ChunkReader, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	log := baseLog.With("component", "ChunkReader", "path", path)

	encName, err := probeEncoding(path)
	if err != nil {
		return nil, err
	}
	log.Info("Selected source encoding", "encoding", encName)

	file, reader, err := openDecoded(path, encName)
	if err != nil {
		return nil, err
	}

	cr := &ChunkReader{
		log:       log,
		file:      file,
		csv:       reader,
		chunkSize: chunkSize,
		encoding:  encName,
	}
	if err := cr.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return cr, nil
}

// probeEncoding tries each candidate on a small read. A candidate passes when
// the first rows parse as CSV; if none do, the most permissive single-byte
// encoding wins by replacement policy.
func probeEncoding(path string) (string, error) {
	for _, cand := range probeEncodings {
		file, reader, err := openDecoded(path, cand.name)
		if err != nil {
			return "", err
		}
		ok := true
		for i := 0; i < probeRows; i++ {
			if _, err := reader.Read(); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					continue
				}
				ok = false
				break
			}
		}
		file.Close()
		if ok {
			return cand.name, nil
		}
	}
	return "latin-1", nil
}

func openDecoded(path, encName string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open source file: %w", err)
	}

	var r io.Reader = bufio.NewReaderSize(file, 256*1024)
	switch encName {
	case "latin-1", "iso-8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "cp1252":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return file, reader, nil
}

func (cr *ChunkReader) readHeader() error {
	header, err := cr.csv.Read()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	cr.header = header
	return nil
}

// Next returns the next chunk, or io.EOF after the last one. Malformed lines
// inside a chunk are skipped at the parse layer, not surfaced as chunk
// failures.
func (cr *ChunkReader) Next() (*Chunk, error) {
	rows := make([]Row, 0, cr.chunkSize)
	for len(rows) < cr.chunkSize {
		record, err := cr.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				cr.skipped++
				cr.log.Debug("Skipping malformed line", "line", parseErr.Line, "error", parseErr)
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, cr.rowFromRecord(record))
	}
	if len(rows) == 0 {
		return nil, io.EOF
	}
	cr.index++
	return &Chunk{Index: cr.index, Rows: rows}, nil
}

func (cr *ChunkReader) rowFromRecord(record []string) Row {
	row := make(Row, len(cr.header))
	for i, name := range cr.header {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	return row
}

// Encoding reports the encoding the probe settled on.
func (cr *ChunkReader) Encoding() string { return cr.encoding }

// SkippedLines reports how many malformed lines the parse layer dropped.
func (cr *ChunkReader) SkippedLines() int { return cr.skipped }

func (cr *ChunkReader) Close() error {
	return cr.file.Close()
}
