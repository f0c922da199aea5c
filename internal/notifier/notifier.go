// Package notifier delivers a single notification to the recur-tray desktop
// app over its localhost webhook. The tray publishes its port, pid and shared
// secret in a lockfile under its config directory.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess

	ErrTrayNotRunning = errors.New(constants.TrayProcessName + " is not running")
)

type Notifier struct {
	client     *http.Client
	retries    int
	retryDelay time.Duration
}

type WebhookPayload struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	Channel    string `json:"channel"`
	DurationMs uint32 `json:"duration_ms"`
}

type endpoint struct {
	port   int
	secret string
}

func New() *Notifier {
	return &Notifier{
		client:     &http.Client{Timeout: 5 * time.Second},
		retries:    constants.NotifyMaxRetries,
		retryDelay: constants.NotifyRetryDelay,
	}
}

// Send delivers n to the tray. Transport failures are retried a few times;
// a missing or stale lockfile is not.
func (n *Notifier) Send(ctx context.Context, note models.Notification) error {
	dir, err := TrayConfigDir()
	if err != nil {
		return err
	}
	ep, err := readLockfile(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		Title:      note.Title,
		Text:       note.Body,
		Channel:    string(note.Channel),
		DurationMs: constants.NotificationDurationMs,
	}

	var lastErr error
	for attempt := 0; attempt < n.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelay):
			}
		}
		if lastErr = n.post(ctx, ep, payload); lastErr == nil {
			return nil
		}
		logger.Debug("Tray delivery failed", "id", note.ID, "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("failed to notify tray after %d attempts: %w", n.retries, lastErr)
}

// TrayConfigDir returns the tray's config directory, honoring a custom
// lockfile_dir from the tray's settings.json.
func TrayConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayDir, "settings.json"))
	if err != nil {
		return trayDir, nil
	}
	var settings struct {
		Settings struct {
			LockfileDir string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &settings); err == nil && settings.Settings.LockfileDir != "" {
		return settings.Settings.LockfileDir, nil
	}
	return trayDir, nil
}

// readLockfile parses "port|pid|secret" and checks the pid belongs to the tray.
func readLockfile(path string) (endpoint, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return endpoint{}, ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return endpoint{}, errors.New("lockfile is malformed")
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return endpoint{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return endpoint{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return endpoint{}, errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return endpoint{}, errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return endpoint{}, ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayProcessName) {
		return endpoint{}, fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayProcessName, process.Executable())
	}
	return endpoint{port: port, secret: secret}, nil
}

func (n *Notifier) post(ctx context.Context, ep endpoint, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://127.0.0.1:%d", ep.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, ep.secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}

// CheckTray reports whether the tray is running and reachable through its lockfile.
func CheckTray() error {
	dir, err := TrayConfigDir()
	if err != nil {
		return err
	}
	_, err = readLockfile(filepath.Join(dir, constants.NotifierLockfileName))
	return err
}
