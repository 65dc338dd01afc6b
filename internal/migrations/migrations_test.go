package migrations

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilesSorted(t *testing.T) {
	t.Parallel()

	files, err := Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no embedded migrations")
	}
	if files[0] != "000001_init.sql" {
		t.Errorf("first migration = %q, want 000001_init.sql", files[0])
	}
}

func TestStatements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "header comment dropped",
			content: "-- Migration: init\n\nCREATE TABLE a (x INT);\n\nCREATE TABLE b (y INT);\n",
			want:    []string{"-- Migration: init\n\nCREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"},
		},
		{
			name:    "comment only",
			content: "-- nothing here\n;",
			want:    nil,
		},
		{
			name:    "empty",
			content: "  ;  ; ",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, Statements(tt.content)); diff != "" {
				t.Errorf("Statements() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
