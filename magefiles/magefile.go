//go:build mage

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	migrationsDir = "./internal/adapters/sqlite/migrations"
	portsDir      = "./internal/ports"
)

// Dbup runs dbmate against DATABASE_URL using the embedded migration files.
// The server and CLI apply the same files on start; this target is for
// inspecting or preparing a database by hand.
func Dbup() error {
	if _, err := exec.LookPath("dbmate"); err != nil {
		fmt.Println(">> dbmate not found; install with:")
		fmt.Println("   go install github.com/amacneil/dbmate/v2@latest")
		return err
	}
	if os.Getenv("DATABASE_URL") == "" {
		os.Setenv("DATABASE_URL", "sqlite:"+dbPath())
	}
	fmt.Println(">> dbmate up", migrationsDir)
	return sh.Run("dbmate", "--migrations-dir", migrationsDir, "--no-dump-schema", "up")
}

// Generate regenerates the gomock doubles for the ports package.
func Generate() error {
	if _, err := exec.LookPath("mockgen"); err != nil {
		fmt.Println(">> mockgen not found; install with:")
		fmt.Println("   go install go.uber.org/mock/mockgen@latest")
		return err
	}
	fmt.Println(">> go generate", portsDir)
	return sh.Run("go", "generate", portsDir)
}

// Build tidies deps then compiles ./bin/jpkvat-server and ./bin/jpkvat.
func Build() error {
	mg.Deps(Tidy)
	fmt.Println(">> Building server binary...")
	if err := sh.Run("go", "build", "-o", "bin/jpkvat-server", "./cmd/server"); err != nil {
		return err
	}
	fmt.Println(">> Building CLI binary...")
	return sh.Run("go", "build", "-o", "bin/jpkvat", "./cmd/jpkvat")
}

// Run builds then executes the server binary.
func Run() error {
	mg.Deps(Build)
	fmt.Println(">> Starting server on :8080 ...")
	return sh.Run("./bin/jpkvat-server")
}

// Dev starts the server via go run with debug logging on the console.
// Ctrl-C stops it.
func Dev() error {
	fmt.Println(">> Dev mode: go run ./cmd/server ...")
	server := exec.Command("go", "run", "./cmd/server")
	server.Stdout = os.Stdout
	server.Stderr = os.Stderr
	server.Env = append(os.Environ(), "PORT=8080", "LOG_LEVEL=debug", "LOG_FORMAT=console")
	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)
	go func() { done <- server.Wait() }()

	select {
	case <-quit:
		fmt.Println("\n>> Shutting down...")
		server.Process.Signal(syscall.SIGTERM)
		return <-done
	case err := <-done:
		return err
	}
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println(">> go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Test runs all unit tests with the race detector.
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs golangci-lint if available.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.Run("golangci-lint", "run", "./...")
}

// Clean removes build artifacts and the local SQLite DB.
func Clean() error {
	fmt.Println(">> Cleaning...")
	os.RemoveAll("bin")
	return os.Remove(dbPath())
}

// Install installs both binaries to $GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	if err := sh.Run("go", "install", "./cmd/server"); err != nil {
		return err
	}
	return sh.Run("go", "install", "./cmd/jpkvat")
}

func dbPath() string {
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	return "jpkvat.db"
}

func init() {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "err", err)
	}
}
