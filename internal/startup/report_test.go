package startup

import (
	"bytes"
	"log"
	"runtime"
	"strings"
	"testing"

	"texture-index/internal/logging"
	"texture-index/internal/memory"
)

// captureLog redirects the standard logger into a buffer and pins the log
// level to info so assertions do not depend on ambient LOG_LEVEL.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	prior := logging.GetLevel()
	logging.SetLevel(logging.LevelInfo)

	var buf bytes.Buffer
	out, flags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)

	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetFlags(flags)
		logging.SetLevel(prior)
	})
	return &buf
}

func TestSection(t *testing.T) {
	buf := captureLog(t)

	section("DATABASE INITIALIZATION")

	out := buf.String()
	if !strings.Contains(out, "DATABASE INITIALIZATION") {
		t.Errorf("section output missing title: %q", out)
	}
	if got := strings.Count(out, rule); got != 2 {
		t.Errorf("section should print the rule twice, got %d", got)
	}
}

func TestLogServerStarted(t *testing.T) {
	buf := captureLog(t)

	LogServerStarted(ServerConfig{Port: "8080", MetricsPort: "9090", MetricsEnabled: true})

	out := buf.String()
	for _, want := range []string{
		"SERVER STARTED",
		"http://localhost:8080",
		"http://localhost:9090/metrics",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLogServerStartedMetricsDisabled(t *testing.T) {
	buf := captureLog(t)

	LogServerStarted(ServerConfig{Port: "8080", MetricsPort: "9090"})

	out := buf.String()
	if strings.Contains(out, "9090/metrics") {
		t.Errorf("metrics endpoint should not be listed when disabled:\n%s", out)
	}
	if !strings.Contains(out, "DISABLED") {
		t.Errorf("output should mark metrics DISABLED:\n%s", out)
	}
}

func TestLogMemoryConfig(t *testing.T) {
	cases := map[string]struct {
		result memory.ConfigResult
		want   string
	}{
		"gomemlimit": {
			result: memory.ConfigResult{Configured: true, Source: "GOMEMLIMIT", GoMemLimit: 512 << 20},
			want:   "512.0 MiB (from GOMEMLIMIT)",
		},
		"container limit": {
			result: memory.ConfigResult{
				Configured:     true,
				Source:         "MEMORY_LIMIT",
				ContainerLimit: 1 << 30,
				GoMemLimit:     912680550,
				Ratio:          0.85,
			},
			want: "870.4 MiB (85% of 1.0 GiB container limit)",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			buf := captureLog(t)
			LogMemoryConfig(tc.result)
			if out := buf.String(); !strings.Contains(out, tc.want) {
				t.Errorf("output missing %q:\n%s", tc.want, out)
			}
		})
	}

	t.Run("unconfigured is quiet at info", func(t *testing.T) {
		buf := captureLog(t)
		LogMemoryConfig(memory.ConfigResult{})
		if out := buf.String(); out != "" {
			t.Errorf("expected no info output, got %q", out)
		}
	})
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Version should never be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestFeatureState(t *testing.T) {
	if got := featureState(true); got != "ENABLED" {
		t.Errorf("featureState(true) = %q", got)
	}
	if got := featureState(false); got != "DISABLED" {
		t.Errorf("featureState(false) = %q", got)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{10 << 20, "10.0 MiB"},
		{912680550, "870.4 MiB"},
		{1 << 30, "1.0 GiB"},
		{123456789012, "115.0 GiB"},
		{1 << 40, "1.0 TiB"},
		{1 << 50, "1.0 PiB"},
		{1 << 60, "1.0 EiB"},
	}
	for _, tc := range cases {
		if got := humanBytes(tc.in); got != tc.want {
			t.Errorf("humanBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func BenchmarkHumanBytes(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = humanBytes(1234567890)
	}
}
