package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/chathub/internal/api"
	"github.com/kalambet/chathub/internal/archive"
	"github.com/kalambet/chathub/internal/config"
	"github.com/kalambet/chathub/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chathub servers (foreground)",
	Long: `Start the MCP tool server and the web UI in the foreground.

The MCP server speaks SSE on server.mcp_port (endpoint /sse); the web
UI serves the archive on server.web_port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running chathub server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show chathub system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(archiveDir string) string {
	return filepath.Join(filepath.Dir(archiveDir), "chathub.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "chathub version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Check if a server is already running via the web health endpoint.
	pidPath := pidFilePath(cfg.Archive.Dir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.WebPort)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("chathub is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("chathub is already running on port %d", cfg.Server.WebPort)
		return fmt.Errorf("server already running on port %d", cfg.Server.WebPort)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the archive.
	store, err := archive.Open(cfg.Archive.Dir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	slog.Info("archive opened", "dir", store.Root())

	// Build and start the MCP server (SSE transport).
	mcpSrv := api.NewMCPServer(api.MCPDeps{Archive: store})
	sseSrv := mcpserver.NewSSEServer(mcpSrv)
	mcpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.MCPPort)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("MCP server started (SSE transport)", "endpoint", fmt.Sprintf("http://%s/sse", mcpAddr))
		if err := sseSrv.Start(mcpAddr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("MCP server: %w", err)
		}
	}()

	// Build and start the web UI server.
	webAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.WebPort)
	webSrv := &http.Server{
		Addr:    webAddr,
		Handler: web.NewHandler(store, slog.Default()),
	}
	go func() {
		slog.Info("web UI listening", "url", "http://"+webAddr)
		if err := webSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("web server: %w", err)
		}
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := webSrv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: web server shutdown: %v\n", err)
	}
	return sseSrv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Archive.Dir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("chathub is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop chathub (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to chathub (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Web UI", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Web UI", "running on port %d", cfg.Server.WebPort)
		} else {
			printStatus("Web UI", "error (HTTP %d)", resp.StatusCode)
		}

		// Count archived conversations while the server is up.
		if convResp, err := client.get(ctx, "/api/conversations"); err == nil {
			var conversations []json.RawMessage
			if json.NewDecoder(convResp.Body).Decode(&conversations) == nil {
				printStatus("Conversations", "%d", len(conversations))
			}
			convResp.Body.Close()
		}
	}

	printStatus("MCP endpoint", "http://127.0.0.1:%d/sse", cfg.Server.MCPPort)
	printStatus("Archive dir", "%s", cfg.Archive.Dir)
	printStatus("Cookie file", "%s", cfg.ChatGPT.CookieFile)
	return nil
}
