// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs the local SearxNG instance that backs web search.
// Docker is preferred; Podman is used when Docker is missing or not running.
package container

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Default values for the local SearxNG container.
const (
	DefaultImage = "docker.io/searxng/searxng:latest"
	DefaultName  = "deep-research-searxng"
	DefaultPort  = 8888
)

// Spec describes a detached container to start.
type Spec struct {
	Image string
	Name  string

	// Ports maps host ports to container ports.
	Ports map[int]int

	Env map[string]string

	// Volumes maps host paths to container paths.
	Volumes map[string]string
}

// SearxNG returns the Spec for a local SearxNG container listening on
// hostPort. JSON output must be enabled in settings.yml for the search
// backend to work, so a settings directory can be mounted at /etc/searxng.
func SearxNG(hostPort int, settingsDir string) Spec {
	if hostPort == 0 {
		hostPort = DefaultPort
	}
	s := Spec{
		Image: DefaultImage,
		Name:  DefaultName,
		Ports: map[int]int{hostPort: 8080},
		Env: map[string]string{
			"SEARXNG_BASE_URL": fmt.Sprintf("http://localhost:%d/", hostPort),
		},
	}
	if settingsDir != "" {
		s.Volumes = map[string]string{settingsDir: "/etc/searxng"}
	}
	return s
}

// Runtime provides the container operations the searxng command needs.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	ImageExists(image string) error

	// Pull fetches an image from its registry.
	Pull(image string) error

	// Start runs a detached container. A stale container with the same
	// name is removed first.
	Start(spec Spec) error

	// Stop stops and removes the named container.
	Stop(name string) error

	// Running reports whether a container with the given name is up.
	Running(name string) (bool, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	Output(name string, args ...string) (string, error)
}

type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) Output(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return string(out), err
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman share the same CLI; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Pull(image string) error {
	if out, err := r.exec.Output(r.bin, "pull", image); err != nil {
		return fmt.Errorf("pulling %s with %s: %w: %s", image, r.bin, err, strings.TrimSpace(out))
	}
	return nil
}

func (r *runtime) Start(spec Spec) error {
	if spec.Image == "" || spec.Name == "" {
		return fmt.Errorf("container image and name are required")
	}
	// Ignore the error: there is usually nothing to remove.
	_ = r.exec.RunSilent(r.bin, "rm", "-f", spec.Name)

	args := runArgs(spec)
	if out, err := r.exec.Output(r.bin, args...); err != nil {
		return fmt.Errorf("starting %s container %s: %w: %s", r.bin, spec.Name, err, strings.TrimSpace(out))
	}
	return nil
}

func (r *runtime) Stop(name string) error {
	if out, err := r.exec.Output(r.bin, "rm", "-f", name); err != nil {
		return fmt.Errorf("stopping %s container %s: %w: %s", r.bin, name, err, strings.TrimSpace(out))
	}
	return nil
}

func (r *runtime) Running(name string) (bool, error) {
	out, err := r.exec.Output(r.bin, "ps", "--filter", "name=^"+name+"$", "--format", "{{.Names}}")
	if err != nil {
		return false, fmt.Errorf("listing %s containers: %w", r.bin, err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// runArgs builds the "run -d" argument list with flags in a stable order.
func runArgs(spec Spec) []string {
	args := []string{"run", "-d", "--name", spec.Name}

	hosts := make([]int, 0, len(spec.Ports))
	for h := range spec.Ports {
		hosts = append(hosts, h)
	}
	sort.Ints(hosts)
	for _, h := range hosts {
		args = append(args, "-p", fmt.Sprintf("%d:%d", h, spec.Ports[h]))
	}

	for _, k := range sortedKeys(spec.Env) {
		args = append(args, "-e", k+"="+spec.Env[k])
	}
	for _, k := range sortedKeys(spec.Volumes) {
		args = append(args, "-v", k+":"+spec.Volumes[k])
	}
	return append(args, spec.Image)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

// EnsureImage pulls image when the runtime does not have it locally.
func EnsureImage(rt Runtime, image string) (pulled bool, err error) {
	if rt.ImageExists(image) == nil {
		return false, nil
	}
	if err := rt.Pull(image); err != nil {
		return false, err
	}
	return true, nil
}
