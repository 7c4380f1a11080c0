package dataprovider

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestProviderReadsRowsInOrder(t *testing.T) {
	path := writeCSV(t, "id,name\n1,ada\n2,grace\n")
	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer p.Close()

	row1, err := p.Next()
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if row1["id"] != "1" || row1["name"] != "ada" {
		t.Errorf("unexpected first row: %v", row1)
	}

	row2, err := p.Next()
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if row2["id"] != "2" || row2["name"] != "grace" {
		t.Errorf("unexpected second row: %v", row2)
	}
}

func TestProviderWrapsAroundAfterEOF(t *testing.T) {
	path := writeCSV(t, "id\n1\n2\n")
	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer p.Close()

	for i := 0; i < 2; i++ {
		if _, err := p.Next(); err != nil {
			t.Fatalf("Next returned error: %v", err)
		}
	}

	wrapped, err := p.Next()
	if err != nil {
		t.Fatalf("Next after wrap-around returned error: %v", err)
	}
	if wrapped["id"] != "1" {
		t.Errorf("expected wrap-around back to first row, got %v", wrapped)
	}
}
