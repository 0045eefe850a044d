// README: Concurrency tests for the conditional capacity update (run with -race).
package move

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"moveflow/internal/types"
)

func TestConcurrentAddClientSerializes(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	m := &Move{
		OriginPostal: "75001",
		DestPostal:   "69001",
		Capacity:     50,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Create(ctx, m); err != nil {
		t.Fatalf("create move: %v", err)
	}

	// Eight workers claim 5 m³ each with the read-then-conditional-update loop
	// the lifecycle uses. Every claim must land exactly once.
	const workers = 8
	const volume = 5.0

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- claimWithRetry(ctx, store, m.ID, volume)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("claim failed: %v", err)
		}
	}

	got, err := store.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get move: %v", err)
	}
	if got.UsedVolume != workers*volume {
		t.Errorf("used_volume = %f, want %f", got.UsedVolume, float64(workers*volume))
	}
	if got.NumberOfClients != workers {
		t.Errorf("number_of_clients = %d, want %d", got.NumberOfClients, workers)
	}
}

func TestAddClientRefusesOverCapacity(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	m := &Move{
		OriginPostal: "75001",
		DestPostal:   "69001",
		Capacity:     10,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Create(ctx, m); err != nil {
		t.Fatalf("create move: %v", err)
	}

	ok, err := store.AddClient(ctx, m.ID, 8, 0)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = store.AddClient(ctx, m.ID, 8, 8)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Error("second claim should not fit the 10 m³ capacity")
	}

	got, err := store.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get move: %v", err)
	}
	if got.UsedVolume != 8 {
		t.Errorf("used_volume = %f, want 8", got.UsedVolume)
	}
}

func TestRemoveClientFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	m := &Move{
		OriginPostal: "75001",
		DestPostal:   "69001",
		Capacity:     50,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Create(ctx, m); err != nil {
		t.Fatalf("create move: %v", err)
	}

	ok, err := store.AddClient(ctx, m.ID, 10, 0)
	if err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if err := store.RemoveClient(ctx, m.ID, 10); err != nil {
		t.Fatalf("remove client: %v", err)
	}
	// Removing more than was ever claimed must clamp, not go negative.
	if err := store.RemoveClient(ctx, m.ID, 10); err != nil {
		t.Fatalf("second remove: %v", err)
	}

	got, err := store.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get move: %v", err)
	}
	if got.UsedVolume != 0 {
		t.Errorf("used_volume = %f, want 0", got.UsedVolume)
	}
	if got.NumberOfClients != 0 {
		t.Errorf("number_of_clients = %d, want 0", got.NumberOfClients)
	}
}

func claimWithRetry(ctx context.Context, store *Store, id types.ID, volume float64) error {
	for {
		m, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		ok, err := store.AddClient(ctx, id, volume, m.UsedVolume)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("MOVEFLOW_TEST_DSN")
	if dsn == "" {
		t.Skip("MOVEFLOW_TEST_DSN not set; skipping DB-backed race tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE match_records, moves, transportation_requests"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
