package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

var healthClient = &http.Client{Timeout: time.Second}

// isServerRunning checks if the server is responding to health checks
func isServerRunning() bool {
	resp, err := healthClient.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func serverBinaryName() string {
	if runtime.GOOS == "windows" {
		return "mediarelay-server.exe"
	}
	return "mediarelay-server"
}

// findServerBinary looks next to the CLI, then on PATH, then in common install dirs
func findServerBinary() (string, error) {
	name := serverBinaryName()

	var candidates []string
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), name))
	}
	if path, err := exec.LookPath(name); err == nil {
		candidates = append(candidates, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "go", "bin", name),
			filepath.Join(home, ".local", "bin", name))
	}
	candidates = append(candidates, "/usr/local/bin/"+name, "/usr/bin/"+name)

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", name)
}

// startServerBackground starts the server as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(serverPath)
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// The server outlives the CLI; only release the process handle
	return cmd.Process.Release()
}

// waitForServerReady polls the health endpoint until it answers or the timeout passes
func waitForServerReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, serverStartTimeout)
	defer cancel()

	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()

	for {
		if isServerRunning() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server did not start within %v", serverStartTimeout)
		case <-ticker.C:
		}
	}
}

// ensureServerRunning checks if server is running, starts it if not
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	fmt.Println("Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServerReady(context.Background()); err != nil {
		return err
	}

	fmt.Println("Server started successfully")
	return nil
}
