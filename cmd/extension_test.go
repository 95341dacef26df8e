package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/coursebooks/config"
)

func TestExtensionMechanism(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not in PATH")
	}
	tempDir := t.TempDir()

	helloSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("args=%%v\n", os.Args[1:])
}
`, config.EnvStore, config.EnvStore, config.EnvStorePath, config.EnvStorePath, config.EnvHTML, config.EnvHTML)

	helloPath := filepath.Join(tempDir, "cbk-hello")
	srcFile := helloPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloSource), 0644); err != nil {
		t.Fatalf("Failed to write cbk-hello source: %v", err)
	}
	build := exec.Command("go", "build", "-o", helloPath, srcFile)
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile cbk-hello: %v", err)
	}

	cbkPath := filepath.Join(tempDir, "cbk")
	build = exec.Command("go", "build", "-o", cbkPath, "../cbk")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile cbk: %v", err)
	}

	storeDir := filepath.Join(tempDir, "books")
	run := exec.Command(cbkPath, "-store", "sqlite", "-store-path", storeDir, "-html", "hello", "world")
	run.Env = []string{"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH")}
	var stdout, stderr bytes.Buffer
	run.Stdout = &stdout
	run.Stderr = &stderr
	if err := run.Run(); err != nil {
		t.Fatalf("cbk command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	for _, want := range []string{
		config.EnvStore + "=sqlite",
		config.EnvStorePath + "=" + storeDir,
		config.EnvHTML + "=true",
		"args=[world]",
	} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("Expected output to contain %q, but got:\n%s", want, stdout.String())
		}
	}
}
