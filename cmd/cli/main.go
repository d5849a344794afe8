package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/yourusername/media-relay-go/internal/app"
	"github.com/yourusername/media-relay-go/internal/domain"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "mediarelay",
		Short: "Media relay CLI - download YouTube, Instagram and Twitter/X media",
		Long:  `A command-line client that downloads media through a running media relay server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download media through the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		format, _ := cmd.Flags().GetString("format")
		quality, _ := cmd.Flags().GetString("quality")
		outputDir, _ := cmd.Flags().GetString("output")
		quiet, _ := cmd.Flags().GetBool("quiet")

		payload, err := json.Marshal(map[string]string{
			"url":     args[0],
			"format":  format,
			"quality": quality,
		})
		if err != nil {
			return err
		}

		resp, err := http.Post(serverURL+"/download", "application/json", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, readError(resp.Body))
		}

		name := fileNameFromDisposition(resp.Header.Get("Content-Disposition"), domain.ParseFormat(format))
		path := filepath.Join(outputDir, name)

		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer file.Close()

		var dst io.Writer = file
		if !quiet {
			bar := progressbar.DefaultBytes(resp.ContentLength, name)
			dst = io.MultiWriter(file, bar)
		}

		written, err := io.Copy(dst, resp.Body)
		if err != nil {
			os.Remove(path)
			return fmt.Errorf("download interrupted after %d bytes: %w", written, err)
		}

		fmt.Printf("\nSaved %s (%d bytes, %s)\n", path, written, resp.Header.Get("Content-Type"))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(serverURL + "/health")
		if err != nil {
			return fmt.Errorf("server unreachable: %w", err)
		}
		defer resp.Body.Close()

		var health map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return fmt.Errorf("invalid health response: %w", err)
		}

		fmt.Println("Server Health:")
		fmt.Printf("  Status:  %v\n", health["status"])
		fmt.Printf("  Version: %v\n", health["version"])
		fmt.Printf("  Uptime:  %v\n", health["uptime"])
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join("configs", "config.yaml")
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}

		fmt.Printf("Wrote default configuration to %s\n", path)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringP("format", "f", "video", "Output format (video, audio)")
	downloadCmd.Flags().StringP("quality", "q", "", "Preferred maximum video height, e.g. 720p")
	downloadCmd.Flags().StringP("output", "o", ".", "Output directory")
	downloadCmd.Flags().Bool("quiet", false, "Hide the progress bar")
}

// fileNameFromDisposition decodes the server's filename, falling back to a generic name
func fileNameFromDisposition(header string, format domain.Format) string {
	fallback := "media." + format.Extension()

	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}

	name := filepath.Base(strings.TrimSpace(params["filename"]))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}

// readError extracts the error message from a JSON error body
func readError(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 64*1024))

	var result struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &result); err == nil && result.Error != "" {
		return result.Error
	}
	return strings.TrimSpace(string(data))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
