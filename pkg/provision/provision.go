// Package provision populates the project-local _local directory with the
// toolchains tenjin builds against: prebuilt build deps, LLVM with a
// Debian sysroot, CMake, and an opam root with an OCaml switch.
package provision

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/tenjin-project/tenjin/pkg/archive"
	"github.com/tenjin-project/tenjin/pkg/fetch"
	"github.com/tenjin-project/tenjin/pkg/hermetic"
	"github.com/tenjin-project/tenjin/pkg/sez"
)

// Step names one provisioning phase.
type Step string

// Steps in the order they run.
const (
	StepDeps  Step = "deps"
	StepLLVM  Step = "llvm"
	StepCMake Step = "cmake"
	StepOpam  Step = "opam"
)

// AllSteps returns every step in run order.
func AllSteps() []Step {
	return []Step{StepDeps, StepLLVM, StepCMake, StepOpam}
}

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	for _, step := range AllSteps() {
		if string(step) == s {
			return step, nil
		}
	}
	return "", fmt.Errorf("unknown provisioning step %q (want one of deps, llvm, cmake, opam)", s)
}

// Downloader fetches a URL to a file, verifying a checksum when one is given.
type Downloader interface {
	Download(ctx context.Context, opts fetch.DownloadOptions) error
}

// Provisioner runs provisioning steps against one project.
type Provisioner struct {
	env        *hermetic.Env
	manifest   *Manifest
	downloader Downloader
	say        *sez.Sayer
	log        logrus.FieldLogger
	goos       string
	goarch     string
}

// New creates a Provisioner for the host platform.
func New(env *hermetic.Env, manifest *Manifest, dl Downloader, say *sez.Sayer, log logrus.FieldLogger) *Provisioner {
	return &Provisioner{
		env:        env,
		manifest:   manifest,
		downloader: dl,
		say:        say,
		log:        log,
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
	}
}

// SetPlatform overrides the target GOOS/GOARCH.
func (p *Provisioner) SetPlatform(goos, goarch string) {
	p.goos = goos
	p.goarch = goarch
}

// Run executes steps in order, all of them when steps is empty.
func (p *Provisioner) Run(ctx context.Context, steps []Step) error {
	if len(steps) == 0 {
		steps = AllSteps()
		say := p.say.For("(overall-provisioning) ")
		say("Provisioning local directory %s...", p.env.LocalDir)
		say("This involves downloading and extracting a few large tarballs:")
		say("    Clang+LLVM, opam/OCaml, a sysroot, and misc build tools like CMake.")
		say("This will take a few minutes...")
	}

	if err := os.MkdirAll(p.env.LocalDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", p.env.LocalDir, err)
	}

	for _, step := range steps {
		log := p.log.WithField("step", step)
		log.Info("provisioning step started")

		var err error
		switch step {
		case StepDeps:
			err = p.provisionBuildDeps(ctx)
		case StepLLVM:
			err = p.provisionLLVM(ctx)
		case StepCMake:
			err = p.provisionCMake(ctx)
		case StepOpam:
			err = p.provisionOpam(ctx)
		default:
			err = fmt.Errorf("unknown provisioning step %q", step)
		}
		if err != nil {
			log.WithError(err).Error("provisioning step failed")
			return fmt.Errorf("provision %s: %w", step, err)
		}
		log.Info("provisioning step finished")
	}
	return nil
}

func (p *Provisioner) provisionBuildDeps(ctx context.Context) error {
	_, err := p.downloadAndExtract(ctx, p.manifest.BuildDeps.URL, p.env.XJBuildDeps(), "(builddeps) ", "a jiffy")
	return err
}

func (p *Provisioner) provisionCMake(ctx context.Context) error {
	u, err := p.manifest.CMakeURL(p.goos, p.goarch)
	if err != nil {
		return err
	}
	_, err = p.downloadAndExtract(ctx, u, filepath.Join(p.env.LocalDir, "cmake"), "(cmake) ", "a minute")
	return err
}

// downloadAndExtract fetches a tarball into a scratch directory under _local,
// unpacks it into (or within) target, and removes the tarball.
func (p *Provisioner) downloadAndExtract(ctx context.Context, tarballURL, target, sayCtx, estimate string) (string, error) {
	say := p.say.For(sayCtx)
	say("This will take %s...", estimate)

	parsed, err := url.Parse(tarballURL)
	if err != nil {
		return "", fmt.Errorf("invalid tarball URL %q: %w", tarballURL, err)
	}
	name := path.Base(parsed.Path)

	scratch, err := os.MkdirTemp(p.env.LocalDir, "download-")
	if err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	tarball := filepath.Join(scratch, name)
	say("Downloading %s...", tarballURL)
	if err := p.downloader.Download(ctx, fetch.DownloadOptions{URL: tarballURL, DestPath: tarball}); err != nil {
		return "", err
	}

	final, err := p.extract(tarball, target, sayCtx)
	if err != nil {
		return "", err
	}

	say("Download and extraction of %s completed successfully!", name)
	return final, nil
}

func (p *Provisioner) extract(tarball, target, sayCtx string) (string, error) {
	chosen, err := archive.ChooseTarget(tarball, target)
	if err != nil {
		return "", err
	}
	if chosen != target {
		p.say.Sayf(sayCtx, "Extracting to subdirectory %s...", chosen)
	} else {
		p.say.Sayf(sayCtx, "Extracting to %s...", target)
	}

	final, err := archive.Extract(tarball, target)
	if err != nil {
		return "", err
	}
	p.log.WithFields(logrus.Fields{"tarball": filepath.Base(tarball), "dir": final}).Debug("extracted")
	return final, nil
}
