//go:build ignore

// build.go - salesprep build script
// Usage: go run build.go [-target=TARGET] [-v] [-version=X.Y.Z]
// Targets: build, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "salesprep"

// releaseTargets are the GOOS/GOARCH pairs produced by the release target
var releaseTargets = [][2]string{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "arm64"},
	{"windows", "amd64"},
}

var (
	distDir = "dist"

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

type buildContext struct {
	Verbose bool
	Version string
}

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	version := flag.String("version", "dev", "Version stamped into the binary")
	flag.Parse()

	ctx := &buildContext{Verbose: *verbose, Version: *version}
	start := time.Now()

	switch *target {
	case "build":
		buildBinary(ctx, runtime.GOOS, runtime.GOARCH)
	case "test":
		runTests(ctx)
	case "clean":
		clean()
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Done in %s", time.Since(start).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func binaryName(goos, goarch string) string {
	name := fmt.Sprintf("salesprep-%s-%s", goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}

func buildBinary(ctx *buildContext, goos, goarch string) {
	outputPath := filepath.Join(distDir, binaryName(goos, goarch))
	printInfo(fmt.Sprintf("Building %s...", outputPath))

	ldflags := fmt.Sprintf("-s -w -X %s/internal/config.Version=%s", module, ctx.Version)
	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/salesprep")

	cmd := exec.Command("go", args...)
	// modernc sqlite is pure Go
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOOS="+goos, "GOARCH="+goarch)
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s/%s: %v", goos, goarch, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
}

func runTests(ctx *buildContext) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean %s: %v", distDir, err))
		os.Exit(1)
	}
	printSuccess("Build artifacts cleaned")
}

func buildRelease(ctx *buildContext) {
	printInfo("Building release binaries...")
	clean()
	for _, t := range releaseTargets {
		buildBinary(ctx, t[0], t[1])
	}

	versionFile := filepath.Join(distDir, "VERSION.txt")
	content := fmt.Sprintf("salesprep %s\nBuilt: %s\n", ctx.Version, time.Now().Format("2006-01-02 15:04:05"))
	if err := os.WriteFile(versionFile, []byte(content), 0644); err != nil {
		printError(fmt.Sprintf("Failed to write %s: %v", versionFile, err))
		os.Exit(1)
	}
	printSuccess("Release build completed")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-version=X.Y.Z]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  build      Build salesprep for the host platform (default)")
	fmt.Println("  test       Run all tests with the race detector")
	fmt.Println("  clean      Remove the dist directory")
	fmt.Println("  release    Cross-compile release binaries into dist/")
}
