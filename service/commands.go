package service

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"blog/app/config"
	"blog/app/repositories"
)

// HandleCommand runs one CLI subcommand and returns the process exit code.
// Flags follow the command name and precede positional arguments.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		PrintHelp()
		return 1
	}

	cmd := args[0]
	if cmd == "help" {
		PrintHelp()
		return 0
	}
	if !knownCommand(cmd) {
		fmt.Printf("Unknown command: %s\n\n", cmd)
		PrintHelp()
		return 1
	}

	cfg, rest, err := parseArgs(cmd, args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 2
	}

	switch cmd {
	case "serve":
		if err := RunAppServer(cfg); err != nil {
			log.Errorf("[server] %v", err)
			return 1
		}
		return 0
	case "init":
		return initDb(cfg)
	case "clean":
		return clean(cfg)
	case "backup":
		return backup(cfg)
	case "restore":
		if len(rest) < 1 {
			fmt.Println("Error: backup file path required for restore")
			return 1
		}
		return restore(cfg, rest[0])
	case "import":
		if len(rest) < 1 {
			fmt.Println("Error: posts file path required for import")
			return 1
		}
		return importPosts(cfg, rest[0])
	case "moderate":
		if len(rest) < 2 {
			fmt.Println("Error: usage is moderate <comment_id> on|off")
			return 1
		}
		return moderate(cfg, rest[0], rest[1])
	}
	return 1
}

func knownCommand(cmd string) bool {
	switch cmd {
	case "serve", "init", "clean", "backup", "restore", "import", "moderate":
		return true
	}
	return false
}

// PrintHelp prints help for the subcommands.
func PrintHelp() {
	helpText := `Usage: blog <command> [flags] [arguments]

Commands:
  serve                           Run the blog web server
  init                            Initialize a new empty database
  clean                           Remove the badger database
  backup                          Create a backup of the badger database
  restore <file>                  Restore the badger database from a backup
  import <posts.toml>             Import posts, tags and comments from a TOML file
  moderate <comment_id> on|off    Show or hide a comment
  version                         Show version information
  help                            Display this help message

Flags:
  -config <file>                  TOML configuration file (default $BLOG_CONFIG)
  -db <dir>                       Badger database directory
  -http <addr>                    HTTP listen address
  -log <level>                    Log level: debug, info, warn or error
`
	fmt.Println(helpText)
}

// parseArgs loads the configuration and applies command line overrides on top.
func parseArgs(cmd string, args []string) (config.Config, []string, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	configPath := fs.String("config", os.Getenv("BLOG_CONFIG"), "TOML configuration file")
	dbPath := fs.String("db", "", "badger database directory")
	httpAddr := fs.String("http", "", "HTTP listen address")
	logLevel := fs.String("log", "", "log level")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, nil, err
	}
	if *dbPath != "" {
		cfg.Storage.BadgerPath = *dbPath
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.Debugf("[config] %s", cfg)
	return cfg, fs.Args(), nil
}

// badgerPath returns the on-disk badger directory, or reports why the command
// cannot run against the configured store.
func badgerPath(cfg config.Config, action string) (string, bool) {
	if cfg.Storage.Driver != config.DriverBadger {
		fmt.Printf("Error: %s is only supported with the badger driver\n", action)
		return "", false
	}
	if cfg.Storage.BadgerPath == "" {
		fmt.Printf("Error: %s needs an on-disk database, storage.badgerPath is empty\n", action)
		return "", false
	}
	return cfg.Storage.BadgerPath, true
}

func confirm(question string) bool {
	fmt.Print(question + " [y/N] ")
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// clean removes the database.
func clean(cfg config.Config) int {
	dbPath, ok := badgerPath(cfg, "clean")
	if !ok {
		return 1
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("Database is already clean (does not exist)")
		return 0
	}

	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

// initDb creates an empty badger database, or applies the schema migrations
// when the posts live in postgres.
func initDb(cfg config.Config) int {
	if cfg.Storage.Driver == config.DriverPostgres {
		app, err := NewApp(context.Background(), cfg)
		if err != nil {
			fmt.Printf("Failed to initialize database: %v\n", err)
			return 1
		}
		app.Close(context.Background())
		fmt.Println("Database initialized successfully")
		return 0
	}

	dbPath, ok := badgerPath(cfg, "init")
	if !ok {
		return 1
	}
	if _, err := os.Stat(dbPath); err == nil {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return 0
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	repo, err := repositories.NewRepository(dbPath)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return 1
	}
	defer repo.Close()

	fmt.Println("Database initialized successfully")
	return 0
}

// backup writes a full backup next to the database, under backups/.
func backup(cfg config.Config) int {
	dbPath, ok := badgerPath(cfg, "backup")
	if !ok {
		return 1
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No database exists to backup")
		return 1
	}

	backupDir := filepath.Join(filepath.Dir(dbPath), "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return 1
	}

	repo, err := repositories.NewRepository(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer repo.Close()

	backupFile := filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := repo.Backup(f); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Printf("Database backed up successfully to %s\n", backupFile)
	return 0
}

// restore restores the database from a backup.
func restore(cfg config.Config, backupFile string) int {
	dbPath, ok := badgerPath(cfg, "restore")
	if !ok {
		return 1
	}
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if _, err := os.Stat(dbPath); err == nil {
		if !confirm("Existing database found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	repo, err := repositories.NewRepository(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer repo.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := repo.Load(f); err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}

// importPosts loads posts from a TOML file into the configured store.
func importPosts(cfg config.Config, file string) int {
	ctx := context.Background()
	app, err := NewApp(ctx, cfg)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		return 1
	}
	defer app.Close(ctx)

	report, err := ImportFile(ctx, app, file)
	if err != nil {
		fmt.Printf("Failed to import %s: %v\n", file, err)
		return 1
	}
	fmt.Printf("Imported %d posts and %d comments, updated %d, deleted %d, skipped %d posts\n",
		report.Posts, report.Comments, report.Updated, report.Deleted, report.Skipped)
	return 0
}

// moderate shows or hides one comment.
func moderate(cfg config.Config, rawID, state string) int {
	id, err := strconv.Atoi(rawID)
	if err != nil || id < 1 {
		fmt.Printf("Error: invalid comment id %q\n", rawID)
		return 1
	}
	var active bool
	switch state {
	case "on":
		active = true
	case "off":
	default:
		fmt.Printf("Error: state must be on or off, got %q\n", state)
		return 1
	}

	ctx := context.Background()
	app, err := NewApp(ctx, cfg)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		return 1
	}
	defer app.Close(ctx)

	comment, err := app.Comments.SetActive(ctx, id, active)
	if err != nil {
		fmt.Printf("Failed to moderate comment %d: %v\n", id, err)
		return 1
	}
	visibility := "hidden"
	if comment.Active {
		visibility = "visible"
	}
	fmt.Printf("Comment %d by %s is now %s\n", comment.ID, comment.Name, visibility)
	return 0
}
