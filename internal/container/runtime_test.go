// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"errors"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool   // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool   // "bin arg1 arg2" -> whether RunSilent succeeds
	outputs       map[string]string // "bin arg1 arg2" -> Output result
	failOutput    map[string]bool   // "bin arg1 arg2" -> Output fails
	calls         []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, key)
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) Output(name string, args ...string) (string, error) {
	key := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, key)
	if m.failOutput[key] {
		return "Error: no such image", errors.New("exit status 125")
	}
	return m.outputs[key], nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: true,
		},
		{
			name: "docker on PATH but daemon down, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	docker := newDockerRuntime(&mockExecutor{runnableCmds: map[string]bool{
		"docker image inspect " + DefaultImage: true,
	}})
	if err := docker.ImageExists(DefaultImage); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	podman := newPodmanRuntime(&mockExecutor{})
	err := podman.ImageExists(DefaultImage)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), DefaultImage) {
		t.Errorf("error should mention image name, got: %v", err)
	}
}

func TestEnsureImagePullsMissing(t *testing.T) {
	exec := &mockExecutor{}
	pulled, err := EnsureImage(newDockerRuntime(exec), DefaultImage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pulled {
		t.Error("expected image to be pulled")
	}
	if last := exec.calls[len(exec.calls)-1]; last != "docker pull "+DefaultImage {
		t.Errorf("last call = %q", last)
	}

	exec = &mockExecutor{runnableCmds: map[string]bool{"docker image inspect " + DefaultImage: true}}
	pulled, err = EnsureImage(newDockerRuntime(exec), DefaultImage)
	if err != nil || pulled {
		t.Errorf("present image: pulled=%v err=%v", pulled, err)
	}
}

func TestPullFailureIncludesOutput(t *testing.T) {
	exec := &mockExecutor{failOutput: map[string]bool{"podman pull bad:tag": true}}
	err := newPodmanRuntime(exec).Pull("bad:tag")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no such image") {
		t.Errorf("error should carry command output, got: %v", err)
	}
}

func TestStartBuildsRunArgs(t *testing.T) {
	exec := &mockExecutor{}
	rt := newDockerRuntime(exec)

	if err := rt.Start(SearxNG(9090, "/srv/searxng")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"docker rm -f " + DefaultName,
		"docker run -d --name " + DefaultName +
			" -p 9090:8080 -e SEARXNG_BASE_URL=http://localhost:9090/" +
			" -v /srv/searxng:/etc/searxng " + DefaultImage,
	}
	if len(exec.calls) != len(want) {
		t.Fatalf("got calls %q, want %q", exec.calls, want)
	}
	for i := range want {
		if exec.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, exec.calls[i], want[i])
		}
	}
}

func TestStartRequiresImageAndName(t *testing.T) {
	rt := newDockerRuntime(&mockExecutor{})
	if err := rt.Start(Spec{Image: DefaultImage}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestSearxNGDefaults(t *testing.T) {
	s := SearxNG(0, "")
	if s.Ports[DefaultPort] != 8080 {
		t.Errorf("ports = %v, want %d:8080", s.Ports, DefaultPort)
	}
	if s.Volumes != nil {
		t.Errorf("volumes = %v, want none", s.Volumes)
	}
}

func TestStop(t *testing.T) {
	exec := &mockExecutor{failOutput: map[string]bool{"podman rm -f missing": true}}
	rt := newPodmanRuntime(exec)
	if err := rt.Stop("missing"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := rt.Stop(DefaultName); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunning(t *testing.T) {
	key := "docker ps --filter name=^" + DefaultName + "$ --format {{.Names}}"
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"listed", DefaultName + "\n", true},
		{"not listed", "", false},
		{"prefix only", DefaultName + "-old\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{outputs: map[string]string{key: tt.output}}
			got, err := newDockerRuntime(exec).Running(DefaultName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Running = %v, want %v", got, tt.want)
			}
		})
	}
}
