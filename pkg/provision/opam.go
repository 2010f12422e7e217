package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/tenjin-project/tenjin/pkg/runner"
)

const opamCtx = "(opam) "

func (p *Provisioner) provisionOpam(ctx context.Context) error {
	say := p.say.For(opamCtx)
	exec := p.env.Executor()

	if err := p.provisionOpamBinary(ctx); err != nil {
		return err
	}

	if err := os.RemoveAll(p.env.OpamRoot()); err != nil {
		return fmt.Errorf("failed to clear opam root: %w", err)
	}

	// bwrap does not work inside most containers; opam runs unsandboxed there.
	var sandboxing []string
	bwrap := filepath.Join(p.env.XJBuildDeps(), "bin", "bwrap")
	if _, _, err := exec.Output(ctx, runner.Command{Name: bwrap, Args: []string{"--", "true"}}); err != nil {
		say("Oh! No working bubblewrap. Assuming this is because we're in Docker. Disabling it...")
		sandboxing = []string{"--disable-sandboxing"}
	}

	say("================================================================")
	say("Initializing opam; this will take about half a minute...")
	say("      (subsequent output comes from `opam init --bare`)")
	say("----------------------------------------------------------------")
	initArgs := append([]string{"init", "--bare", "--no-setup", "--disable-completion"}, sandboxing...)
	if err := p.env.CheckCallOpam(ctx, initArgs, false); err != nil {
		return err
	}

	say("================================================================")
	say("Installing OCaml; this will take a few minutes to compile...")
	say("      (subsequent output comes from `opam switch create`)")
	say("----------------------------------------------------------------")
	createArgs := []string{"switch", "create", "tenjin", p.manifest.Version(KeyOCaml), "--no-switch"}
	if err := p.env.CheckCallOpam(ctx, createArgs, false, "OPAMNOENVNOTICE=1"); err != nil {
		return err
	}

	seen, err := p.env.RunOpam(ctx, []string{"--version"}, true)
	if err != nil {
		return err
	}
	say("opam version: %s", strings.TrimSpace(string(seen)))
	return nil
}

// provisionOpamBinary puts an opam binary at _local/opam, symlinking the
// system one when it is recent enough and downloading otherwise.
func (p *Provisioner) provisionOpamBinary(ctx context.Context) error {
	say := p.say.For(opamCtx)
	exec := p.env.Executor()
	want := p.manifest.Version(KeyOpam)
	dest := p.env.OpamPath()

	installer := filepath.Join(p.env.Root, "cli", "sh", "install-opam-"+want+".sh")
	if info, err := os.Stat(installer); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("did not find expected installer script %s for opam-%s", installer, want)
	}

	if sysOpam, err := exec.LookPath("opam"); err == nil {
		out, err := exec.Run(ctx, sysOpam, "--version")
		if err == nil && versionAtLeast(strings.TrimSpace(out), want) {
			say("Symlinking to a suitable version of opam at %s", sysOpam)
			os.Remove(dest)
			return os.Symlink(sysOpam, dest)
		}
	}

	say("Downloading a local copy of opam...")
	err := exec.Exec(ctx, runner.Command{
		Name: "sh",
		Args: []string{installer, "--download-only"},
		Dir:  p.env.Root,
	})
	if err != nil {
		return fmt.Errorf("opam installer: %w", err)
	}

	tagged, err := filepath.Glob(filepath.Join(p.env.Root, "opam-"+want+"-*"))
	if err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("expected one downloaded opam-%s binary, found %d", want, len(tagged))
	}

	if err := os.Chmod(tagged[0], 0755); err != nil {
		return err
	}
	return os.Rename(tagged[0], dest)
}

func versionAtLeast(have, want string) bool {
	h, err := version.NewVersion(have)
	if err != nil {
		return false
	}
	w, err := version.NewVersion(want)
	if err != nil {
		return false
	}
	return h.GreaterThanOrEqual(w)
}
