package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := execute(t, "plan", "--profile", "atmega328p", "--ms", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "atmega328p (16000000 Hz)")
	assert.Contains(t, out, "request: 1 ms")
	assert.Contains(t, out, "cycles:  16000")
	assert.Contains(t, out, "direct{iterations=391}")
}

func TestPlanCommandZeroRequest(t *testing.T) {
	// --ms 0 is a valid no-op request, not a missing flag.
	out, err := execute(t, "plan", "--profile", "atmega328p", "--ms", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "plan:    noop")
}

func TestPlanCommandRequiresOneUnit(t *testing.T) {
	_, err := execute(t, "plan", "--profile", "atmega328p")
	assert.Error(t, err)

	_, err = execute(t, "plan", "--profile", "atmega328p", "--ms", "1", "--us", "5")
	assert.Error(t, err)
}

func TestPlanCommandOverflow(t *testing.T) {
	_, err := execute(t, "plan", "--profile", "atmega328p", "--s", "300")
	assert.Error(t, err)
}

func TestProfilesCommand(t *testing.T) {
	out, err := execute(t, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "atmega328p")
	assert.Contains(t, out, "attiny85")
	assert.Contains(t, out, "cortex-m0plus")
	assert.Contains(t, out, "rp2040")
}

const validRequests = `package: delays
profile: atmega328p
delays:
  - name: DelayBoot
    ms: 5
  - name: DelayBit
    us: 104
`

func TestGenCommandToStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delays.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validRequests), 0644))

	out, err := execute(t, "gen", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Code generated by spindelay")
	assert.Contains(t, out, "func DelayBoot()")
	assert.Contains(t, out, "func DelayBit()")
}

func TestGenCommandToFile(t *testing.T) {
	dir := t.TempDir()
	reqPath := filepath.Join(dir, "delays.yaml")
	outPath := filepath.Join(dir, "delays.go")
	require.NoError(t, os.WriteFile(reqPath, []byte(validRequests), 0644))

	_, err := execute(t, "gen", "-o", outPath, reqPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "spin.Naps(")
}

func TestGenCommandFailsOnOverflow(t *testing.T) {
	requests := `package: delays
profile: atmega328p
delays:
  - name: DelayForever
    s: 300
`
	path := filepath.Join(t.TempDir(), "delays.yaml")
	require.NoError(t, os.WriteFile(path, []byte(requests), 0644))

	_, err := execute(t, "gen", path)
	require.Error(t, err, "overflow must fail generation so the build breaks")
}

func TestCalibrateCommandNeedsClock(t *testing.T) {
	_, err := execute(t, "calibrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clock-hz")
}

func TestLoadRequestsValidation(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	testCases := []struct {
		name    string
		content string
	}{
		{"missing package", "profile: rp2040\ndelays:\n  - name: X\n    ms: 1\n"},
		{"missing profile", "package: d\ndelays:\n  - name: X\n    ms: 1\n"},
		{"no delays", "package: d\nprofile: rp2040\n"},
		{"unnamed delay", "package: d\nprofile: rp2040\ndelays:\n  - ms: 1\n"},
		{"duplicate names", "package: d\nprofile: rp2040\ndelays:\n  - name: X\n    ms: 1\n  - name: X\n    us: 1\n"},
		{"no unit", "package: d\nprofile: rp2040\ndelays:\n  - name: X\n"},
		{"two units", "package: d\nprofile: rp2040\ndelays:\n  - name: X\n    ms: 1\n    us: 1\n"},
		{"unknown profile", "package: d\nprofile: z80\ndelays:\n  - name: X\n    ms: 1\n"},
	}
	for _, tc := range testCases {
		path := write("case.yaml", tc.content)
		_, err := LoadRequests(path)
		assert.Error(t, err, tc.name)
	}
}

func TestLoadRequestsZeroMagnitude(t *testing.T) {
	// ms: 0 is present and valid; the pointer fields keep it distinct
	// from an absent key.
	content := "package: d\nprofile: rp2040\ndelays:\n  - name: DelayNone\n    ms: 0\n"
	path := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := LoadRequests(path)
	require.NoError(t, err)
	require.Len(t, f.Delays, 1)
	assert.Equal(t, uint64(0), f.Delays[0].Magnitude)
}

func TestLoadRequestsBuildTags(t *testing.T) {
	content := "package: main\nprofile: rp2040\nbuild_tags: rp2040\ndelays:\n  - name: delayTick\n    ms: 1\n"
	path := filepath.Join(t.TempDir(), "tags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := LoadRequests(path)
	require.NoError(t, err)
	assert.Equal(t, "rp2040", f.Tags)
}
