package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dev",
		Short: "Run the API under air with hot reload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev()
		},
	}
}

func runDev() error {
	airPath, err := exec.LookPath("air")
	if err != nil {
		fmt.Println("Missing binary: air")
		fmt.Println("Install with:")
		fmt.Println("  go install github.com/air-verse/air@latest")
		return errors.New("air not found")
	}

	airArgs := []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "go build -o ./tmp/server ./cmd/server",
		"-build.bin", "./tmp/server",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,tmp,data,_examples",
		"-build.exclude_regex", "_test.go$",
		"-build.include_ext", "go,sql",
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
	}

	env := append(os.Environ(), "APP_ENV=development")

	return syscall.Exec(airPath, airArgs, env)
}
