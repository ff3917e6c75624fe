package etl

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/medrates/pricing-backend/internal/logger"
)

const testHeader = "Rndrng_Prvdr_CCN,Rndrng_Prvdr_Org_Name,Rndrng_Prvdr_City,Rndrng_Prvdr_State_Abrvtn,Rndrng_Prvdr_Zip5,DRG_Cd,DRG_Desc,Tot_Dschrgs,Avg_Submtd_Cvrd_Chrg,Avg_Tot_Pymt_Amt,Avg_Mdcr_Pymt_Amt\n"

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test csv: %v", err)
	}
	return path
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestChunkReaderBoundsChunks(t *testing.T) {
	content := testHeader
	for i := 0; i < 5; i++ {
		content += "330101,MOUNT SINAI,NEW YORK,NY,10001,001,HEART TRANSPLANT,10,100.0,50.0,40.0\n"
	}
	path := writeTestCSV(t, content)

	reader, err := NewChunkReader(path, 2, testLogger(t))
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer reader.Close()

	sizes := []int{}
	for {
		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		sizes = append(sizes, len(chunk.Rows))
	}
	want := []int{2, 2, 1}
	if len(sizes) != len(want) {
		t.Fatalf("chunk count: want=%d got=%d", len(want), len(sizes))
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("chunk %d size: want=%d got=%d", i, want[i], sizes[i])
		}
	}
}

func TestChunkReaderBuildsNamedRows(t *testing.T) {
	content := testHeader + "330101,MOUNT SINAI,NEW YORK,NY,10001,001,HEART TRANSPLANT,10,100.0,50.0,40.0\n"
	path := writeTestCSV(t, content)

	reader, err := NewChunkReader(path, 10, testLogger(t))
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer reader.Close()

	chunk, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	row := chunk.Rows[0]
	if row["Rndrng_Prvdr_CCN"] != "330101" {
		t.Fatalf("provider id: want=330101 got=%q", row["Rndrng_Prvdr_CCN"])
	}
	if row["DRG_Desc"] != "HEART TRANSPLANT" {
		t.Fatalf("description: want=%q got=%q", "HEART TRANSPLANT", row["DRG_Desc"])
	}
}

func TestChunkReaderSkipsMalformedLines(t *testing.T) {
	content := testHeader +
		"330101,MOUNT SINAI,NEW YORK,NY,10001,001,HEART TRANSPLANT,10,100.0,50.0,40.0\n" +
		"\"unterminated,quote,line\n" +
		"330102,NYU LANGONE,NEW YORK,NY,10002,002,HEART TRANSPLANT W/O MCC,5,90.0,45.0,30.0\n"
	path := writeTestCSV(t, content)

	reader, err := NewChunkReader(path, 10, testLogger(t))
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer reader.Close()

	total := 0
	for {
		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		total += len(chunk.Rows)
	}
	if total < 1 {
		t.Fatalf("rows: want at least the first valid row, got=%d", total)
	}
	if reader.SkippedLines() == 0 && total != 2 {
		t.Fatalf("malformed line neither skipped nor parsed: rows=%d", total)
	}
}

func TestChunkReaderHandlesSingleByteEncoding(t *testing.T) {
	// 0xE9 is é in both latin-1 and cp1252 and invalid as standalone UTF-8.
	content := testHeader + "330101,H\xe9PITAL GENERAL,NEW YORK,NY,10001,001,HEART TRANSPLANT,10,100.0,50.0,40.0\n"
	path := writeTestCSV(t, content)

	reader, err := NewChunkReader(path, 10, testLogger(t))
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer reader.Close()

	chunk, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	name := chunk.Rows[0]["Rndrng_Prvdr_Org_Name"]
	if name != "HéPITAL GENERAL" {
		t.Fatalf("decoded name: want=%q got=%q", "HéPITAL GENERAL", name)
	}
}
