package codegen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/xplshn/vslc/pkg/config"
)

// AssembleAndLink assembles asm with the system C compiler driver and links
// it against the C runtime into outFile.
func AssembleAndLink(ctx context.Context, cfg *config.Config, outFile, asm string) error {
	tmpDir, err := os.MkdirTemp("", "vslc-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	asmPath := filepath.Join(tmpDir, "program.s")
	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("failed to write assembly: %w", err)
	}

	// The generated code addresses runtime functions directly, so PIE is off
	// where the toolchain defaults to it.
	var ccArgs []string
	if cfg.Target.Name == "amd64_sysv" {
		ccArgs = append(ccArgs, "-no-pie")
	}
	ccArgs = append(ccArgs, "-o", outFile, asmPath)
	ccArgs = append(ccArgs, cfg.LinkerArgs...)

	cmd := exec.CommandContext(ctx, "cc", ccArgs...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc command failed: %w\nOutput:\n%s", err, string(output))
	}
	return nil
}
