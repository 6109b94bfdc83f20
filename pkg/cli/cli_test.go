package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrmonitor/hrmonitor/pkg/cli"
	"github.com/m-mizutani/gt"
)

func TestRun_SeedCommand_BuiltinSamples(t *testing.T) {
	err := cli.Run(context.Background(), []string{"hrmonitor", "seed", "--repository-backend", "memory"}, "test")
	gt.NoError(t, err)
}

func TestRun_SeedCommand_File(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cases.yaml")
	content := `
cases:
  - case_id: HRM-2024-0001
    title: Detention of a journalist
    violation_types: [arbitrary_arrest]
    status: new
    location:
      country: Kenya
      longitude: 36.8219
      latitude: -1.2921
    date_occurred: 2024-05-03
    date_reported: 2024-05-04T09:00:00Z
    created_by: admin
  - case_id: HRM-2024-0001
    title: Duplicate id is skipped
    violation_types: [torture]
    location:
      country: Kenya
    date_occurred: 2024-05-03
    date_reported: 2024-05-04
    created_by: admin
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()

	err := cli.Run(context.Background(), []string{"hrmonitor", "seed", "--repository-backend", "memory", "--file", path}, "test")
	gt.NoError(t, err)
}

func TestRun_SeedCommand_InvalidFile(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown field",
			content: "cases:\n  - case_id: HRM-1\n    colour: red\n",
		},
		{
			name:    "bad date",
			content: "cases:\n  - case_id: HRM-1\n    title: t\n    violation_types: [torture]\n    location: {country: Kenya}\n    date_occurred: yesterday\n    date_reported: 2024-05-04\n    created_by: admin\n",
		},
		{
			name:    "fails validation",
			content: "cases:\n  - case_id: HRM-1\n    location: {country: Kenya}\n    date_occurred: 2024-05-03\n    date_reported: 2024-05-04\n    created_by: admin\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cases.yaml")
			gt.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600)).Required()

			err := cli.Run(context.Background(), []string{"hrmonitor", "seed", "--repository-backend", "memory", "--file", path}, "test")
			gt.Value(t, err).NotNil()
		})
	}
}

func TestRun_SeedCommand_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yaml")
	err := cli.Run(context.Background(), []string{"hrmonitor", "seed", "--repository-backend", "memory", "--file", path}, "test")
	gt.Value(t, err).NotNil()
}

func TestRun_MigrateCommand_MemoryIsNoop(t *testing.T) {
	err := cli.Run(context.Background(), []string{"hrmonitor", "migrate", "--repository-backend", "memory"}, "test")
	gt.NoError(t, err)
}

func TestRun_MigrateCommand_MongoDryRun(t *testing.T) {
	err := cli.Run(context.Background(), []string{"hrmonitor", "migrate", "--repository-backend", "mongo", "--dry-run"}, "test")
	gt.NoError(t, err)
}

func TestRun_ServeCommand_InvalidBackend(t *testing.T) {
	err := cli.Run(context.Background(), []string{"hrmonitor", "serve", "--repository-backend", "sqlite"}, "test")
	gt.Value(t, err).NotNil()
}
