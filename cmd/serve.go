package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/finplan/internal/config"
	"github.com/theirongolddev/finplan/internal/daemon"
	"github.com/theirongolddev/finplan/internal/logging"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr    string
	flagServeCron    string
	flagServePIDFile string
	flagServeEvents  int
	flagServeOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local rate daemon with an HTTP API",
	Long: "Serve /healthz, /v1/status, /v1/rates, /v1/projection and /v1/events on a local\n" +
		"address, re-resolving growth rates into the cache on a cron schedule.",
	RunE: runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runServeStop,
}

func init() {
	pf := serveCmd.PersistentFlags()
	pf.StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config, "+config.DefaultDaemonAddr+")")
	pf.StringVar(&flagServePIDFile, "pid-file", filepath.Join(config.CacheDir(), "finplan.pid"), "PID file path")
	serveCmd.Flags().StringVar(&flagServeCron, "cron", "", "Refresh schedule (default from config, "+config.DefaultRefreshCron+")")
	serveCmd.Flags().IntVar(&flagServeEvents, "events-buffer", 200, "Max in-memory events retained")
	serveCmd.Flags().StringSliceVar(&flagServeOrigins, "allow-origin", nil, "Browser origin allowed to call the API (repeatable)")

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return appCfg.Daemon.Addr
}

func runServe(_ *cobra.Command, _ []string) error {
	if pid, err := readPID(flagServePIDFile); err == nil && processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	if err := os.MkdirAll(filepath.Dir(flagServePIDFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(flagServePIDFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer func() { _ = os.Remove(flagServePIDFile) }()

	// The daemon logs JSON lines; the interactive console writer is for humans.
	logger = logging.NewJSON(logLevel(), os.Stderr).With().Str("component", "daemon").Logger()

	rates := openRates()
	defer rates.Close()

	cron := flagServeCron
	if cron == "" {
		cron = appCfg.Daemon.RefreshCron
	}
	origins := appCfg.Daemon.AllowedOrigins
	if len(flagServeOrigins) > 0 {
		origins = flagServeOrigins
	}
	cfg := daemon.Config{
		Addr:           serveAddr(),
		RefreshCron:    cron,
		EventsBuffer:   flagServeEvents,
		AllowedOrigins: origins,
		Logger:         logger,
	}

	// A nil *store.Cache must not become a non-nil RefreshLog.
	var svc *daemon.Service
	if rates.cache != nil {
		svc = daemon.New(cfg, rates.resolver, rates.cache)
	} else {
		svc = daemon.New(cfg, rates.resolver, nil)
	}

	progress("finplan daemon listening on http://%s", cfg.Addr)
	progress("Refreshing rates %s", cfg.RefreshCron)
	progress("Stop with: finplan serve stop --pid-file %s", flagServePIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	if pid, err := readPID(flagServePIDFile); err != nil {
		fmt.Println("  Daemon: no pid file")
	} else if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
	} else {
		fmt.Printf("  Daemon PID: %d\n", pid)
	}

	addr := serveAddr()
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Started: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	if st.LastRefreshAt.IsZero() {
		fmt.Println("  Last refresh: pending")
	} else {
		fmt.Printf("  Last refresh: %s\n", st.LastRefreshAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Schedule: %s\n", st.RefreshCron)
	fmt.Printf("  Refreshes: %d\n", st.RefreshCount)

	sources := make([]string, 0, len(st.Sources))
	for src, n := range st.Sources {
		sources = append(sources, fmt.Sprintf("%s=%d", src, n))
	}
	sort.Strings(sources)
	fmt.Printf("  Sources: %s\n", strings.Join(sources, " "))
	fmt.Printf("  Subscribers: %d\n", st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagServePIDFile)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(flagServePIDFile)
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func readPID(path string) (int, error) {
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
