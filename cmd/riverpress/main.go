package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	glog "github.com/labstack/gommon/log"

	"github.com/grandriver/riverpress"
	"github.com/grandriver/riverpress/model"
)

// version is set at build time via ldflags.
var version = "dev"

const envFile = ".env"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe()
	case "export":
		err = runExport(args)
	case "hash-password":
		err = runHashPassword(args)
	case "settings":
		err = runSettings(args)
	case "init":
		err = runInit(args)
	case "version":
		fmt.Printf("riverpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func printUsage() {
	fmt.Println(`riverpress - the Grand River Analytics research site

Usage:
  riverpress <command> [arguments]

Commands:
  serve                  Run the web server
  export [dir]           Render the public site to static files (default EXPORT_DIR)
  hash-password <pw>     Print a bcrypt hash for ADMIN_PASSWORD_HASH
  settings [flags]       Show or update the site name, description and base URL
  init [dir]             Write a starter .env into dir
  version                Print the riverpress version
  help                   Show this help message

Configuration is read from the environment and an optional .env file.`)
}

func setupApp(ctx context.Context) (*riverpress.App, error) {
	cfg, err := riverpress.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}
	app := riverpress.New(cfg)
	if err := app.Setup(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Echo.Shutdown(shutdownCtx)
}

func runExport(args []string) error {
	ctx := context.Background()
	app, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	dir := app.Config.ExportDir
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	return app.Export(ctx, dir)
}

func runHashPassword(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: riverpress hash-password <password>")
	}
	hash, err := riverpress.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(string(hash))
	return nil
}

func runSettings(args []string) error {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	name := fs.String("name", "", "site name")
	description := fs.String("description", "", "site description")
	baseURL := fs.String("base-url", "", "canonical base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := riverpress.LoadConfig(envFile)
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := riverpress.NewStore(ctx, cfg.DatabasePath, cfg.BackupCSVPath, glog.New("riverpress"))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Seed(ctx, model.DefaultSettings(cfg.BaseURL), model.Timestamp(time.Now())); err != nil {
		return err
	}
	st, err := store.Settings(ctx)
	if err != nil {
		return err
	}
	changed := false
	fs.Visit(func(f *flag.Flag) { changed = true })
	if changed {
		if *name != "" {
			st.SiteName = *name
		}
		if *description != "" {
			st.SiteDescription = *description
		}
		if *baseURL != "" {
			st.BaseURL = strings.TrimSuffix(*baseURL, "/")
		}
		if err := store.SaveSettings(ctx, st); err != nil {
			return err
		}
	}
	fmt.Printf("site_name:        %s\nsite_description: %s\nbase_url:         %s\n",
		st.SiteName, st.SiteDescription, st.BaseURL)
	return nil
}
