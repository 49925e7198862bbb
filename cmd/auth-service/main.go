// ABOUTME: Entry point for the auth-service credential server
// ABOUTME: Issues API keys, mints and validates JWTs for platform services

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/lumenbase/auth-service/internal/auth"
	"github.com/lumenbase/auth-service/internal/client"
	"github.com/lumenbase/auth-service/internal/config"
	"github.com/lumenbase/auth-service/internal/keys"
	"github.com/lumenbase/auth-service/internal/server"
	"github.com/lumenbase/auth-service/internal/service"
	"github.com/lumenbase/auth-service/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
             _   _
  __ _ _   _| |_| |__        ___  ___ _ ____   _(_) ___ ___
 / _' | | | | __| '_ \ _____/ __|/ _ \ '__\ \ / / |/ __/ _ \
| (_| | |_| | |_| | | |_____\__ \  __/ |   \ V /| | (_|  __/
 \__,_|\__,_|\__|_| |_|     |___/\___|_|    \_/ |_|\___\___|
`

// getConfigPath returns the path to the auth-service config file.
// Priority: AUTH_SERVICE_CONFIG env var > XDG_CONFIG_HOME/lumenbase/auth-service.yaml > ~/.config/lumenbase/auth-service.yaml
func getConfigPath() string {
	if envPath := os.Getenv("AUTH_SERVICE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "auth-service.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "lumenbase", "auth-service.yaml")
}

// getDataPath returns the path to the auth-service data directory.
// Priority: XDG_DATA_HOME/lumenbase > ~/.local/share/lumenbase
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "lumenbase")
}

func main() {
	// Local overrides for development; missing file is fine
	_ = godotenv.Load(".env.local")

	if len(os.Args) < 2 {
		fmt.Println("Usage: auth-service <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                      Start the credential server")
		fmt.Println("  init                       Create a new config file interactively")
		fmt.Println("  provision --email EMAIL    Create an admin user and default project")
		fmt.Println("  health                     Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "provision":
		err = runProvision(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	if cfg.Server.GRPCAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("gRPC:      %s\n", cfg.Server.GRPCAddr)
	}
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	fmt.Println()

	logger.Info("starting auth-service",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
	)

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	issuer := keys.NewIssuer(s, logger)
	codec, err := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	srv := server.New(cfg,
		service.NewApiKeyService(issuer, logger),
		service.NewJwtService(issuer, codec, logger),
		service.NewUserAuthService(s, logger),
		logger,
	)

	return srv.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c := client.New(cfg.Server.HTTPAddr)
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Println("healthy")
	return nil
}

// runProvision performs first-time setup:
// 1. Creates config file with random JWT secret (if not exists)
// 2. Creates the database, an admin user, and a default project
//
// One-command setup: auth-service provision --email you@example.com --password secret
func runProvision(ctx context.Context) error {
	// Supports both "--flag value" and "--flag=value" formats
	var email, password, name, project string
	role := store.RoleAdmin
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func(flag string) (string, error) {
			if v, ok := strings.CutPrefix(arg, flag+"="); ok {
				return v, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", flag)
			}
			i++
			return args[i], nil
		}

		var err error
		switch {
		case arg == "--email" || strings.HasPrefix(arg, "--email="):
			email, err = value("--email")
		case arg == "--password" || strings.HasPrefix(arg, "--password="):
			password, err = value("--password")
		case arg == "--name" || strings.HasPrefix(arg, "--name="):
			name, err = value("--name")
		case arg == "--project" || strings.HasPrefix(arg, "--project="):
			project, err = value("--project")
		case arg == "--role" || strings.HasPrefix(arg, "--role="):
			var raw string
			raw, err = value("--role")
			role = store.Role(strings.ToUpper(raw))
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
		if err != nil {
			return err
		}
	}

	if email == "" {
		return fmt.Errorf("--email flag is required")
	}
	if password == "" {
		return fmt.Errorf("--password flag is required")
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role %q (want USER, ADMIN, or SUPERADMIN)", role)
	}
	if name == "" {
		name = email
	}
	if project == "" {
		project = "default"
	}

	configPath := getConfigPath()
	dataPath := getDataPath()
	dbPath := filepath.Join(dataPath, "auth-service.db")

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	// Check if config exists, create if not
	var cfg *config.Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Generate random JWT secret
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.MkdirAll(dataPath, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		configContent := fmt.Sprintf(`# auth-service configuration
# Generated by auth-service provision

server:
  http_addr: "localhost:8080"
  grpc_addr: "localhost:50051"

database:
  path: "%s"

auth:
  jwt_secret: "%s"
  token_ttl: "1h"

rate_limit:
  request_limit: 60
  window: "1m"

logging:
  level: "info"
  format: "text"
`, dbPath, jwtSecret)

		if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		green.Printf("  ✓ Created config: %s\n", configPath)

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cyan.Printf("  Using existing config: %s\n", configPath)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	green.Printf("  ✓ Database: %s\n", cfg.Database.Path)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
	}
	switch err := s.CreateUser(ctx, user); {
	case err == nil:
		green.Printf("  ✓ Created user: %s (%s)\n", email, role)
	case errors.Is(err, store.ErrEmailExists):
		// Re-provisioning an existing user resets their password
		existing, err := s.GetUserByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("looking up user: %w", err)
		}
		if err := s.UpdateUserPassword(ctx, existing.ID, hash); err != nil {
			return fmt.Errorf("updating password: %w", err)
		}
		cyan.Printf("  Updated password for existing user: %s\n", email)
	default:
		return fmt.Errorf("creating user: %w", err)
	}

	proj := &store.Project{Name: project}
	switch err := s.CreateProject(ctx, proj); {
	case err == nil:
		green.Printf("  ✓ Created project: %s\n", project)
	case errors.Is(err, store.ErrProjectExists):
		cyan.Printf("  Using existing project: %s\n", project)
	default:
		return fmt.Errorf("creating project: %w", err)
	}

	fmt.Println()
	green.Println("  Provisioning complete!")
	fmt.Println()
	fmt.Println("  Ready to go:")
	fmt.Println("    auth-service serve     # start the credential server")
	fmt.Printf("    curl -X POST localhost:8080/v1/api-keys \\\n")
	fmt.Printf("      -d '{\"project\":{\"name\":%q},\"email\":%q,\"password\":\"...\",\"environment\":\"dev\"}'\n", project, email)
	fmt.Println()

	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("auth-service configuration setup")
	fmt.Println("================================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "auth-service.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")
	grpcAddr := prompt(reader, "gRPC health address (empty to disable)", "localhost:50051")

	// Database
	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	// Auth
	fmt.Println("\n--- Auth Configuration ---")
	tokenTTL := prompt(reader, "Token TTL", "1h")

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# auth-service configuration\n")
	cfg.WriteString("# Generated by auth-service init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	if grpcAddr != "" {
		cfg.WriteString(fmt.Sprintf("  grpc_addr: \"%s\"\n", grpcAddr))
	}
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
	cfg.WriteString(fmt.Sprintf("  token_ttl: \"%s\"\n", tokenTTL))
	cfg.WriteString("\n")

	cfg.WriteString("rate_limit:\n")
	cfg.WriteString("  request_limit: 60\n")
	cfg.WriteString("  window: \"1m\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Config holds the JWT secret; keep it private
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  auth-service serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
