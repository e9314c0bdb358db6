package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pagespeedlab/sitespeed-runner/internal/scan"
)

func newTestDocker() *Docker {
	return NewDocker(Config{
		Image:          "sitespeedio/sitespeed.io:38.6.0-plus1",
		HostReportsDir: "/srv/reports",
		HostScriptsDir: "/srv/scripts",
		Locale:         "fr",
	}, zap.NewNop())
}

func TestBuildArgsPlainURL(t *testing.T) {
	t.Parallel()

	args := newTestDocker().buildArgs(scan.LaunchSpec{
		Target:       "https://example.com",
		OutputFolder: "scan-1",
	})

	assert.Equal(t, []string{"run", "--rm", "--shm-size=2g"}, args[:3])
	assert.Contains(t, args, "/srv/reports:/sitespeed.io")
	assert.Contains(t, args, "/srv/scripts:/scripts:ro")
	assert.Contains(t, args, "https://example.com")
	assert.Contains(t, args, "analysisstorer")
	assert.Contains(t, args, "@sitespeed.io/plugin-lighthouse")
	assert.NotContains(t, args, "--multi")

	// The image must precede the target so docker treats the rest as the
	// container's argv.
	imageIdx := indexOf(args, "sitespeedio/sitespeed.io:38.6.0-plus1")
	targetIdx := indexOf(args, "https://example.com")
	assert.Less(t, imageIdx, targetIdx)
}

func TestBuildArgsScriptingMode(t *testing.T) {
	t.Parallel()

	args := newTestDocker().buildArgs(scan.LaunchSpec{
		Target:       "/sitespeed.io/_scripts/scan_abc.cjs",
		OutputFolder: "abc",
		Multi:        true,
		ExtraArgs:    []string{"-b", "firefox", "--video"},
	})

	assert.Contains(t, args, "--multi")
	// Extra args come last so they can override the built-in settings.
	assert.Equal(t, []string{"-b", "firefox", "--video"}, args[len(args)-3:])
	multiIdx := indexOf(args, "--multi")
	assert.Less(t, multiIdx, len(args)-3)
}

func indexOf(ss []string, want string) int {
	for i, s := range ss {
		if s == want {
			return i
		}
	}
	return -1
}
