package infra

import "testing"

func TestMigrationFilesAreOrdered(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migration files: %v", err)
	}
	want := []string{"0001_identities.sql", "0002_accounts.sql", "0003_transactions.sql"}
	if len(files) != len(want) {
		t.Fatalf("expected %d migrations, got %v", len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("migration %d: expected %s, got %s", i, want[i], files[i])
		}
	}
}
