// Package launcher shells out to the sitespeed.io container.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/pagespeedlab/sitespeed-runner/internal/scan"
)

// Config holds the host-side knobs for a docker invocation.
type Config struct {
	// Image is the sitespeed.io container image, e.g.
	// sitespeedio/sitespeed.io:38.6.0-plus1.
	Image string
	// HostReportsDir is the host path mounted at /sitespeed.io. The docker
	// socket runs containers on the host, so host paths are required.
	HostReportsDir string
	// HostScriptsDir is mounted read-only at /scripts.
	HostScriptsDir string
	// Locale is passed to sitespeed and lighthouse.
	Locale string
}

// Docker launches sitespeed.io scans via `docker run`.
type Docker struct {
	cfg    Config
	logger *zap.Logger
}

// NewDocker constructs a Docker launcher.
func NewDocker(cfg Config, logger *zap.Logger) *Docker {
	return &Docker{cfg: cfg, logger: logger}
}

// Launch runs one scan to completion, capturing stdout/stderr. A non-zero
// container exit is reported in the result; an error is returned only when
// the invocation itself faults.
func (d *Docker) Launch(ctx context.Context, spec scan.LaunchSpec) (scan.LaunchResult, error) {
	args := d.buildArgs(spec)
	d.logger.Info("running sitespeed container",
		zap.String("scan_id", spec.OutputFolder),
		zap.Strings("args", args),
	)

	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := scan.LaunchResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return scan.LaunchResult{}, fmt.Errorf("run sitespeed container: %w", err)
	}
	return result, nil
}

func (d *Docker) buildArgs(spec scan.LaunchSpec) []string {
	args := []string{
		"run", "--rm", "--shm-size=2g",
		"-v", fmt.Sprintf("%s:/sitespeed.io", d.cfg.HostReportsDir),
		"-v", fmt.Sprintf("%s:/scripts:ro", d.cfg.HostScriptsDir),
		d.cfg.Image,
		spec.Target,
		"--outputFolder", spec.OutputFolder,
		"--plugins.add", "analysisstorer", // JSON output
		"--plugins.add", "@sitespeed.io/plugin-lighthouse",
		"--plugins.remove", "@sitespeed.io/plugin-gpsi", // avoid GPSI quota
		"--locale", d.cfg.Locale,
		"--lighthouse.settings.locale", d.cfg.Locale,
		// Overridable through spec.ExtraArgs.
		"--lighthouse.settings.throttlingMethod", "simulate",
	}
	if spec.Multi {
		args = append(args, "--multi")
	}
	return append(args, spec.ExtraArgs...)
}
