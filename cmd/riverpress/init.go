package main

import (
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed dotenv.tmpl
var dotenvTemplate string

// dotenvData holds the template variables for the starter .env.
type dotenvData struct {
	SecretKey string
	BaseURL   string
}

// runInit writes a starter .env with a fresh SECRET_KEY. It refuses to
// overwrite an existing file.
func runInit(args []string) error {
	dir := "."
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	if len(args) > 1 {
		return errors.New("usage: riverpress init [dir]")
	}
	outPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("%s already exists", outPath)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generate secret key: %w", err)
	}
	tmpl, err := template.New("dotenv").Parse(dotenvTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, dotenvData{
		SecretKey: hex.EncodeToString(key),
		BaseURL:   "http://localhost:5000",
	}); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	fmt.Printf("  created %s\n\n", outPath)
	fmt.Println("Next steps:")
	fmt.Println("  riverpress hash-password <password>   # paste into ADMIN_PASSWORD_HASH")
	fmt.Println("  riverpress serve")
	return nil
}
