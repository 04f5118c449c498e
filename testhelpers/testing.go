package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"taxdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for testing
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=taxdesk_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestClient creates a client profile row for testing
func SetupTestClient(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	clientID := uuid.New()
	query := `
		INSERT INTO users (id, email, first_name, last_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	email := "client-" + clientID.String()[:8] + "@example.com"
	_, err := db.Pool.Exec(context.Background(), query, clientID, email, "Test", "Client", models.RoleClient, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}

	return clientID
}

// SetupTestEmployee creates an employee row with the given role for testing
func SetupTestEmployee(t *testing.T, db *TestDB, role string) uuid.UUID {
	t.Helper()

	employeeID := uuid.New()
	query := `
		INSERT INTO employees (id, email, first_name, last_name, role, assigned_clients, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '{}', $6, $6)
	`
	email := "staff-" + employeeID.String()[:8] + "@example.com"
	_, err := db.Pool.Exec(context.Background(), query, employeeID, email, "Test", "Employee", role, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test employee: %v", err)
	}

	return employeeID
}

// SetupTestDocument creates a document record for the given client
func SetupTestDocument(t *testing.T, db *TestDB, clientID uuid.UUID) uuid.UUID {
	t.Helper()

	docID := uuid.New()
	query := `
		INSERT INTO documents (id, client_id, filename, document_type, tax_year, notes, status, storage_key, download_url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	storageKey := clientID.String() + "/test_" + docID.String()[:8] + ".pdf"
	_, err := db.Pool.Exec(context.Background(), query,
		docID, clientID, "w2_2023.pdf", "W-2", 2023, "", models.DocumentStatusPending, storageKey, "http://example.com/"+storageKey, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test document: %v", err)
	}

	return docID
}

// CleanupTestData removes rows created by the helpers above
func CleanupTestData(t *testing.T, db *TestDB) {
	t.Helper()

	ctx := context.Background()
	statements := []string{
		`DELETE FROM documents WHERE client_id IN (SELECT id FROM users WHERE email LIKE '%@example.com')`,
		`DELETE FROM tax_returns WHERE client_id IN (SELECT id FROM users WHERE email LIKE '%@example.com')`,
		`DELETE FROM employees WHERE email LIKE '%@example.com'`,
		`DELETE FROM users WHERE email LIKE '%@example.com'`,
		`DELETE FROM credentials WHERE email LIKE '%@example.com'`,
	}
	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			t.Logf("cleanup: %v", err)
		}
	}
}
