package keyring

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/recur/internal/constants"
)

func TestSetAndGetConnectionString(t *testing.T) {
	// Use mock keyring for testing
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"

	// Test Set
	err := SetConnectionString(testConnStr)
	if err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	// Test Get
	retrieved, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}

	if retrieved != testConnStr {
		t.Errorf("GetConnectionString() = %q, want %q", retrieved, testConnStr)
	}
}

func TestSetConnectionStringEmpty(t *testing.T) {
	gokeyring.MockInit()

	err := SetConnectionString("")
	if err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
}

func TestGetConnectionStringNotFound(t *testing.T) {
	gokeyring.MockInit()

	// Ensure nothing is stored
	_ = DeleteConnectionString()

	_, err := GetConnectionString()
	if err != ErrNotFound {
		t.Errorf("GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteConnectionString(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb"

	// First, set a connection string
	err := SetConnectionString(testConnStr)
	if err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	// Delete it
	err = DeleteConnectionString()
	if err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}

	// Verify it's gone
	_, err = GetConnectionString()
	if err != ErrNotFound {
		t.Errorf("After DeleteConnectionString(), GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteConnectionStringNotFound(t *testing.T) {
	gokeyring.MockInit()

	// Ensure nothing is stored
	_ = DeleteConnectionString()

	err := DeleteConnectionString()
	if err != ErrNotFound {
		t.Errorf("DeleteConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	available := IsAvailable()
	// In mock mode, keyring should be available
	if !available {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}

func TestResolve(t *testing.T) {
	gokeyring.MockInit()
	_ = DeleteConnectionString()
	t.Setenv(constants.EnvDBConnection, "")

	if _, _, err := Resolve(""); err != ErrNoConnectionString {
		t.Fatalf("Resolve() with nothing configured error = %v, want %v", err, ErrNoConnectionString)
	}

	if err := SetConnectionString("postgres://keyring@localhost/recur"); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}
	got, src, err := Resolve("")
	if err != nil || src != SourceKeyring || got != "postgres://keyring@localhost/recur" {
		t.Errorf("Resolve() = %q, %q, %v; want keyring value", got, src, err)
	}

	t.Setenv(constants.EnvDBConnection, "postgres://env@localhost/recur")
	got, src, _ = Resolve("")
	if src != SourceEnv || got != "postgres://env@localhost/recur" {
		t.Errorf("Resolve() = %q, %q; want env value", got, src)
	}

	got, src, _ = Resolve("postgres://flag@localhost/recur")
	if src != SourceFlag || got != "postgres://flag@localhost/recur" {
		t.Errorf("Resolve() = %q, %q; want flag value", got, src)
	}
}
