package runtime

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestBuildWorkerEnv_InjectsChannelAddr(t *testing.T) {
	env := buildWorkerEnv([]string{"HOME=/home/u"}, &WorkerConfig{
		ChannelAddr: "/tmp/flume-x.sock",
	})

	if got := lookupEnv(env, ChannelEnvVar); got != "/tmp/flume-x.sock" {
		t.Errorf("%s = %q, want /tmp/flume-x.sock", ChannelEnvVar, got)
	}
	if got := lookupEnv(env, "HOME"); got != "/home/u" {
		t.Errorf("HOME = %q, base env not preserved", got)
	}
}

func TestBuildWorkerEnv_PrependsSearchPaths(t *testing.T) {
	sep := string(os.PathListSeparator)
	env := buildWorkerEnv([]string{"PYTHONPATH=/existing"}, &WorkerConfig{
		ChannelAddr: "/tmp/flume-x.sock",
		SearchPaths: []string{"/a", "/b"},
	})

	want := "/a" + sep + "/b" + sep + "/existing"
	if got := lookupEnv(env, "PYTHONPATH"); got != want {
		t.Errorf("PYTHONPATH = %q, want %q", got, want)
	}
}

func TestBuildWorkerEnv_CustomSearchPathVar(t *testing.T) {
	env := buildWorkerEnv(nil, &WorkerConfig{
		ChannelAddr:   "/tmp/flume-x.sock",
		SearchPaths:   []string{"/lib"},
		SearchPathVar: "NODE_PATH",
	})

	if got := lookupEnv(env, "NODE_PATH"); got != "/lib" {
		t.Errorf("NODE_PATH = %q, want /lib", got)
	}
	if got := lookupEnv(env, "PYTHONPATH"); got != "" {
		t.Errorf("PYTHONPATH = %q, want unset", got)
	}
}

func TestBuildWorkerEnv_LastDuplicateWins(t *testing.T) {
	env := buildWorkerEnv([]string{ChannelEnvVar + "=/stale.sock"}, &WorkerConfig{
		ChannelAddr: "/fresh.sock",
	})

	var count int
	for _, entry := range env {
		if strings.HasPrefix(entry, ChannelEnvVar+"=") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%d %s entries, want 1", count, ChannelEnvVar)
	}
	if got := lookupEnv(env, ChannelEnvVar); got != "/fresh.sock" {
		t.Errorf("%s = %q, want /fresh.sock", ChannelEnvVar, got)
	}
}

func TestWorkerManager_StartValidation(t *testing.T) {
	m := NewWorkerManager(&WorkerConfig{ChannelAddr: "/tmp/x.sock"})
	if err := m.Start(context.Background()); err == nil {
		t.Error("empty argv accepted")
	}

	m = NewWorkerManager(&WorkerConfig{Argv: []string{"true"}})
	if err := m.Start(context.Background()); err == nil {
		t.Error("empty channel address accepted")
	}
}

func TestWorkerManager_WaitBeforeStart(t *testing.T) {
	m := NewWorkerManager(&WorkerConfig{})
	if _, err := m.Wait(); err == nil {
		t.Error("Wait before Start did not fail")
	}
}

func TestWorkerManager_CapturesExitCodeAndStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh not available on windows")
	}

	m := NewWorkerManager(&WorkerConfig{
		Argv:        []string{"sh", "-c", "echo oops >&2; exit 7"},
		ChannelAddr: "/tmp/flume-unused.sock",
	})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	res, err := m.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.ExitCode)
	}
	if !strings.Contains(string(res.StderrBytes), "oops") {
		t.Errorf("stderr = %q, want to contain oops", res.StderrBytes)
	}
}

func TestWorkerManager_SeesChannelAddrInEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh not available on windows")
	}

	m := NewWorkerManager(&WorkerConfig{
		Argv:        []string{"sh", "-c", `[ "$TEST_RUN_PIPE" = "/tmp/flume-env.sock" ]`},
		ChannelAddr: "/tmp/flume-env.sock",
	})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	res, err := m.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("worker did not see %s (exit %d)", ChannelEnvVar, res.ExitCode)
	}
}
