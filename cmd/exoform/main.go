package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/exoform/internal/app"
	"github.com/ayusman/exoform/internal/config"
	"github.com/ayusman/exoform/internal/logging"
	"github.com/ayusman/exoform/internal/metrics"
	"github.com/ayusman/exoform/internal/render"
	"github.com/ayusman/exoform/internal/server"
	"github.com/ayusman/exoform/internal/store"
	"github.com/ayusman/exoform/internal/tray"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool

	// Serve flags
	addr      string
	noTray    bool
	autoStart bool
	writePath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "exoform",
	Short: "Exoform - gesture-controlled particle engine",
	Long: `Exoform tracks one hand through the webcam and shapes a particle cloud
around it. Hold the hand steady for three seconds to reveal a spell.

Run without arguments to start the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// serveCmd starts the HTTP server and, optionally, the tray
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and frame loop",
	RunE:  runServe,
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "exoform %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

// configCmd prints or writes the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if writePath != "" {
			return cfg.Save(writePath)
		}
		// Keep the key out of terminal scrollback.
		if cfg.Analyzer.APIKey != "" {
			cfg.Analyzer.APIKey = "********"
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
		cmd.Flags().BoolVar(&noTray, "no-tray", false, "Do not show the system tray")
		cmd.Flags().BoolVar(&autoStart, "start", false, "Start the engine immediately")
	}
	configCmd.Flags().StringVar(&writePath, "write", "", "Write the configuration to this path instead of printing it")

	rootCmd.AddCommand(serveCmd, versionCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// A .env file next to the binary may carry GEMINI_API_KEY.
	envErr := godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if noTray {
		cfg.Server.Tray = false
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if envErr == nil {
		logger.Info("loaded environment from .env")
	} else {
		logger.Debug("no .env file, using process environment")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.Journal.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}
	defer st.Close()

	resolver, err := app.NewResolver(ctx, cfg.Analyzer, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	hub := render.NewHub(logger.Named("render"))
	engine := app.New(app.Options{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Store:    st,
		Surface:  hub,
		Resolver: resolver,
	})
	hub.OnResize = func(width, height int) {
		if err := engine.Resize(width, height); err != nil {
			logger.Debug("ignored viewport from client", zap.Error(err))
		}
	}

	var metricsHandler http.Handler
	if cfg.Server.Metrics {
		metricsHandler = m.Handler()
	}

	staticDir := findWebDir(cfg.Server.StaticDir)
	if staticDir != "" {
		logger.Info("serving static files", zap.String("dir", staticDir))
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Engine:    engine,
		Stream:    engine,
		Frames:    hub,
		Metrics:   metricsHandler,
		Logger:    logger.Named("server"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr)
	})
	if autoStart {
		g.Go(func() error {
			// A failed start leaves the engine in the error state for a retry.
			if err := engine.Start(); err != nil {
				logger.Warn("engine did not start", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := engine.Close(shutdownCtx)
		hub.Close()
		return err
	})

	if cfg.Server.Tray {
		t := tray.New(engine)
		t.OnOpen(func() {
			if err := openBrowser(viewerURL(cfg.Server.Addr)); err != nil {
				logger.Warn("failed to open browser", zap.Error(err))
			}
		})
		t.OnQuit(stop)
		go func() {
			<-gctx.Done()
			t.Quit()
		}()
		// systray must own the main goroutine on macOS.
		t.Run()
	}

	return g.Wait()
}

// viewerURL turns a listen address into a browsable URL.
func viewerURL(listen string) string {
	host := listen
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/"
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir resolves the static directory. A configured directory that
// exists wins; otherwise it checks "web", "../web" and ~/.exoform/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(configured string) string {
	candidates := []string{configured, "web", "../web"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".exoform", "web"))
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
