package player

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

func loadFixture(t *testing.T, name string) scan.Buffer {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return scan.Buffer(data)
}

func str(s string) *string {
	return &s
}
