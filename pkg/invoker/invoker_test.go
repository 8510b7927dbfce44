package invoker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
)

func TestConfiguration_Clone(t *testing.T) {
	proto := Configuration{
		Goals:      []string{"install"},
		Profiles:   []string{"ci"},
		Properties: map[string]string{"skipTests": "true"},
		Env:        map[string]string{"JAVA_HOME": "/jdk"},
	}

	c := proto.Clone()
	c.BaseDirectory = "/work/core"
	c.Goals[0] = "deploy"
	c.Profiles = append(c.Profiles, "release")
	c.Properties["skipTests"] = "false"
	c.Env["JAVA_HOME"] = "/other"

	if proto.BaseDirectory != "" || proto.Goals[0] != "install" || len(proto.Profiles) != 1 ||
		proto.Properties["skipTests"] != "true" || proto.Env["JAVA_HOME"] != "/jdk" {
		t.Errorf("Clone() shares state with prototype: %+v", proto)
	}
}

func TestConfiguration_Args(t *testing.T) {
	tests := []struct {
		name string
		cfg  Configuration
		want []string
	}{
		{
			name: "goals only",
			cfg:  Configuration{Goals: []string{"install"}},
			want: []string{"install"},
		},
		{
			name: "everything",
			cfg: Configuration{
				BaseDirectory:   "/work/core",
				Goals:           []string{"clean", "install"},
				Profiles:        []string{"a", "b"},
				Properties:      map[string]string{"z": "1", "a": "2"},
				LocalRepository: "/repo",
				Offline:         true,
				Batch:           true,
			},
			want: []string{
				"-f", filepath.Join("/work/core", "pom.xml"), "-B", "-o", "-P", "a,b",
				"-Da=2", "-Dz=1", "-Dmaven.repo.local=/repo", "clean", "install",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Args(); !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakeMaven writes a shell script that echoes its arguments and exits
// with $FAKE_EXIT.
func fakeMaven(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "mvn")
	script := "#!/bin/sh\necho \"args: $*\"\nexit ${FAKE_EXIT:-0}\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecInvoker_Execute(t *testing.T) {
	exe := fakeMaven(t)
	inv := NewExecInvoker(nil)

	tests := []struct {
		name     string
		exit     string
		wantCode int
	}{
		{"success", "0", 0},
		{"build failure", "3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg := Configuration{
				BaseDirectory: t.TempDir(),
				Executable:    exe,
				Goals:         []string{"install"},
				Batch:         true,
				Env:           map[string]string{"FAKE_EXIT": tt.exit},
				Stdout:        &out,
			}
			res := inv.Execute(context.Background(), cfg)
			if res.Err != nil {
				t.Fatalf("Execute() error = %v", res.Err)
			}
			if res.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", res.ExitCode, tt.wantCode)
			}
			if res.Success() != (tt.wantCode == 0) {
				t.Errorf("Success() = %v", res.Success())
			}
			if !strings.Contains(out.String(), "-B install") {
				t.Errorf("stdout = %q, want the build arguments", out.String())
			}
		})
	}
}

func TestExecInvoker_LaunchFailure(t *testing.T) {
	cfg := Configuration{Executable: filepath.Join(t.TempDir(), "no-such-mvn")}
	res := NewExecInvoker(nil).Execute(context.Background(), cfg)
	if res.ExitCode != LaunchFailure || res.Err == nil {
		t.Errorf("Execute() = %+v, want launch failure", res)
	}
}

func TestExecInvoker_Cancelled(t *testing.T) {
	exe := fakeMaven(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewExecInvoker(nil).Execute(ctx, Configuration{Executable: exe})
	if res.Success() || res.Err == nil {
		t.Errorf("Execute() on cancelled context = %+v, want an error", res)
	}
}
