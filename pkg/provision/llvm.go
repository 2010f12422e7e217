package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tenjin-project/tenjin/pkg/archive"
	"github.com/tenjin-project/tenjin/pkg/fetch"
)

// Clang drivers that get a .cfg file pointing at the sysroot.
var cfgDrivers = []string{"clang", "clang++", "cc", "c++"}

// LLVM tools exposed under their binutils names. ranlib and size have no
// llvm- counterpart in the tarball.
var binutilsNames = []string{"ar", "as", "nm", "objcopy", "objdump", "readelf", "strings", "strip"}

var driverAliases = [][2]string{{"clang", "cc"}, {"clang++", "c++"}, {"lld", "ld"}}

const sysrootTarball = "tenjin-sysroot.tar.xz"

func (p *Provisioner) provisionLLVM(ctx context.Context) error {
	llvmRoot := p.env.XJLLVMRoot()

	local := filepath.Join(p.env.Root, p.manifest.LLVM.LocalTarball)
	if info, err := os.Stat(local); p.manifest.LLVM.LocalTarball != "" && err == nil && info.Mode().IsRegular() {
		p.say.Say("(llvm) ", "This will take a minute...")
		if _, err := p.extract(local, llvmRoot, "(llvm) "); err != nil {
			return err
		}
	} else {
		if _, err := p.downloadAndExtract(ctx, p.manifest.LLVM.URL, llvmRoot, "(llvm) ", "a minute"); err != nil {
			return err
		}
	}

	if err := p.provisionSysroot(ctx, filepath.Join(llvmRoot, p.manifest.Sysroot.DirName)); err != nil {
		return err
	}

	return WriteToolchainLinks(filepath.Join(llvmRoot, "bin"), p.manifest.Sysroot.DirName)
}

// provisionSysroot replaces dest with a freshly unpacked sysroot whose
// tarball checksum matches the manifest.
func (p *Provisioner) provisionSysroot(ctx context.Context, dest string) error {
	p.say.Say("(sysroot) ", "Downloading and unpacking sysroot tarball...")

	u, sum, err := p.manifest.SysrootURL(p.goarch)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to clear sysroot: %w", err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create sysroot: %w", err)
	}

	tarball := filepath.Join(dest, sysrootTarball)
	err = p.downloader.Download(ctx, fetch.DownloadOptions{URL: u, DestPath: tarball, SHA256: sum})
	if err != nil {
		return fmt.Errorf("sysroot: %w", err)
	}

	if err := archive.ExtractFile(tarball, dest); err != nil {
		return err
	}
	return os.Remove(tarball)
}

// WriteToolchainLinks writes clang driver config files that default to the
// sysroot, and symlinks binutils and driver aliases to their LLVM tools.
// Existing symlinks are left alone.
func WriteToolchainLinks(binDir, sysrootName string) error {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return err
	}

	cfg := []byte("--sysroot <CFGDIR>/../" + sysrootName + "\n")
	for _, name := range cfgDrivers {
		if err := os.WriteFile(filepath.Join(binDir, name+".cfg"), cfg, 0644); err != nil {
			return fmt.Errorf("failed to write %s.cfg: %w", name, err)
		}
	}

	links := make([][2]string, 0, len(binutilsNames)+len(driverAliases))
	for _, name := range binutilsNames {
		links = append(links, [2]string{"llvm-" + name, name})
	}
	links = append(links, driverAliases...)

	for _, l := range links {
		src := filepath.Join(binDir, l[0])
		dst := filepath.Join(binDir, l[1])
		if info, err := os.Lstat(dst); err == nil && info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if err := os.Symlink(src, dst); err != nil {
			return fmt.Errorf("failed to link %s: %w", l[1], err)
		}
	}
	return nil
}
