package netops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunCommandCapturesOutput(t *testing.T) {
	t.Parallel()
	res, err := RunCommand(context.Background(), 5*time.Second, "echo", "hello")
	if err != nil {
		t.Skipf("echo unavailable: %v", err)
	}
	if res.ExitCode != 0 || strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("result = %+v", res)
	}
	if res.Elapsed <= 0 {
		t.Error("elapsed not recorded")
	}
}

func TestRunCommandTimeout(t *testing.T) {
	t.Parallel()
	res, err := RunCommand(context.Background(), 50*time.Millisecond, "sleep", "5")
	if err != nil {
		t.Skipf("sleep unavailable: %v", err)
	}
	if !res.TimedOut || res.ExitCode != timeoutExitCode {
		t.Errorf("timeout not detected: %+v", res)
	}
}

func TestRunCommandMissingBinary(t *testing.T) {
	t.Parallel()
	if _, err := RunCommand(context.Background(), time.Second, "no-such-binary-xyz"); err == nil {
		t.Error("missing binary reported no error")
	}
}

func TestLimitLines(t *testing.T) {
	t.Parallel()
	in := "a\nb\nc\nd\n"
	if got := LimitLines(in, 2); !strings.HasPrefix(got, "a\nb\n") || !strings.Contains(got, "truncated") {
		t.Errorf("LimitLines = %q", got)
	}
	if got := LimitLines(in, 0); got != in {
		t.Errorf("no-limit modified output: %q", got)
	}
}

func TestPingCommandShapes(t *testing.T) {
	t.Parallel()
	linux := PingCommandFor("linux", "1.1.1.1", 2, 3)
	if strings.Join(linux, " ") != "ping -c 2 -W 3 1.1.1.1" {
		t.Errorf("linux ping = %v", linux)
	}
	windows := PingCommandFor("windows", "1.1.1.1", 2, 3)
	if windows[1] != "-n" || windows[4] != "3000" {
		t.Errorf("windows ping = %v", windows)
	}
	darwin := PingCommandFor("darwin", "1.1.1.1", 2, 3)
	if darwin[3] != "-W" || darwin[4] != "3000" {
		t.Errorf("darwin ping = %v", darwin)
	}
}

func TestTracerouteCommandShapes(t *testing.T) {
	t.Parallel()
	if argv := TracerouteCommandFor("windows", "example.com", 20); argv[0] != "tracert" {
		t.Errorf("windows traceroute = %v", argv)
	}
	if argv := TracerouteCommandFor("linux", "example.com", 20); argv[0] != "traceroute" || argv[2] != "20" {
		t.Errorf("linux traceroute = %v", argv)
	}
}

func TestEnsureScheme(t *testing.T) {
	t.Parallel()
	if got := EnsureScheme("example.com"); got != "https://example.com" {
		t.Errorf("EnsureScheme bare = %q", got)
	}
	if got := EnsureScheme("http://example.com"); got != "http://example.com" {
		t.Errorf("EnsureScheme with scheme = %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.txt")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q", data)
	}

	// No temp litter left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want just the target", len(entries))
	}
}

func TestProbeTCPClosedPort(t *testing.T) {
	t.Parallel()
	res := ProbeTCP(context.Background(), "127.0.0.1", 1, time.Second)
	if res.Open {
		t.Skip("something answers on 127.0.0.1:1 here")
	}
	if res.ErrCode == "" || res.Err == nil {
		t.Errorf("closed port not classified: %+v", res)
	}
}
