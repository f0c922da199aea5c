package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/models"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func stubConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func stubProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestTrayConfigDir(t *testing.T) {
	base := stubConfigDir(t)
	trayDir := filepath.Join(base, constants.TrayAppIdentifier)

	dir, err := TrayConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != trayDir {
		t.Errorf("expected %s, got %s", trayDir, dir)
	}

	custom := filepath.Join(base, "custom-lock")
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	settings := fmt.Sprintf(`{"settings":{"lockfile_dir":%q}}`, custom)
	if err := os.WriteFile(filepath.Join(trayDir, "settings.json"), []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}
	if dir, _ = TrayConfigDir(); dir != custom {
		t.Errorf("expected custom dir %s, got %s", custom, dir)
	}
}

func TestReadLockfile(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		executable string
		wantErr    string
	}{
		{name: "two-part format", content: "8080|12345", executable: "recur-tray", wantErr: "malformed"},
		{name: "garbage", content: "invalid", executable: "recur-tray", wantErr: "malformed"},
		{name: "empty secret", content: "8080|12345|", executable: "recur-tray", wantErr: "secret"},
		{name: "empty port", content: "|12345|s3cret", executable: "recur-tray", wantErr: "port"},
		{name: "port out of range", content: "99999|12345|s3cret", executable: "recur-tray", wantErr: "range"},
		{name: "bad pid", content: "8080|abc|s3cret", executable: "recur-tray", wantErr: "process ID"},
		{name: "process gone", content: "8080|12345|s3cret", executable: "", wantErr: "not running"},
		{name: "pid reused", content: "8080|12345|s3cret", executable: "other-app", wantErr: "is not recur-tray"},
		{name: "valid", content: "8080|12345|s3cret\n", executable: "recur-tray"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProcess(t, tt.executable)
			path := filepath.Join(t.TempDir(), constants.NotifierLockfileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			ep, err := readLockfile(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("readLockfile() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ep.port != 8080 || ep.secret != "s3cret" {
				t.Errorf("got %+v", ep)
			}
		})
	}

	if _, err := readLockfile(filepath.Join(t.TempDir(), "missing.lock")); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile error = %v, want ErrTrayNotRunning", err)
	}
}

func TestSend(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get(constants.TraySecretHeader) != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if payload.Channel != "medication" || payload.DurationMs != constants.NotificationDurationMs {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	u, _ := url.Parse(server.URL)

	base := stubConfigDir(t)
	stubProcess(t, "recur-tray")
	trayDir := filepath.Join(base, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeLock := func(secret string) {
		lock := fmt.Sprintf("%s|4242|%s", u.Port(), secret)
		if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lock), 0644); err != nil {
			t.Fatal(err)
		}
	}

	n := New()
	n.retryDelay = time.Millisecond
	note := models.Notification{ID: "medication:x:2024-01-01", Title: "Medication: Iron", Body: "Time to take Iron", Channel: models.ChannelMedication}

	writeLock("test-secret")
	if err := n.Send(context.Background(), note); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}

	calls.Store(0)
	failing := note
	failing.Body = "fail"
	if err := n.Send(context.Background(), failing); err == nil {
		t.Error("expected error for server failure")
	}
	if int(calls.Load()) != constants.NotifyMaxRetries {
		t.Errorf("expected %d attempts, got %d", constants.NotifyMaxRetries, calls.Load())
	}

	writeLock("wrong-secret")
	if err := n.Send(context.Background(), note); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestCheckTray(t *testing.T) {
	base := stubConfigDir(t)
	stubProcess(t, "recur-tray")

	if err := CheckTray(); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("CheckTray() without lockfile = %v, want ErrTrayNotRunning", err)
	}

	trayDir := filepath.Join(base, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte("8080|4242|s3cret"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := CheckTray(); err != nil {
		t.Errorf("CheckTray() = %v, want nil", err)
	}
}
