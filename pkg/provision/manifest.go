package provision

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed manifest.yaml
var defaultManifest []byte

// ErrUnsupportedPlatform is returned when no artifact exists for a GOOS/GOARCH.
var ErrUnsupportedPlatform = errors.New("platform not supported")

// Version keys tracked by the manifest.
const (
	KeyLLVM      = "llvm"
	KeyOpam      = "opam"
	KeyDune      = "dune"
	KeyOCaml     = "ocaml"
	KeyCMake     = "cmake"
	KeyBuildDeps = "build-deps"
	KeySysExtras = "bullseye-sysroot-extras"
)

// Manifest pins the versions and sources of everything provisioned into _local.
type Manifest struct {
	Versions  map[string]string `yaml:"versions"`
	BuildDeps Artifact          `yaml:"build_deps"`
	LLVM      LLVMArtifact      `yaml:"llvm"`
	Sysroot   Sysroot           `yaml:"sysroot"`
	CMake     CMake             `yaml:"cmake"`
}

// Artifact is a single downloadable tarball.
type Artifact struct {
	URL string `yaml:"url"`
}

// LLVMArtifact is the LLVM tarball. A file named LocalTarball in the project
// root is used instead of downloading when present.
type LLVMArtifact struct {
	URL          string `yaml:"url"`
	LocalTarball string `yaml:"local_tarball"`
}

// Sysroot is a Debian bullseye sysroot addressed by content hash.
type Sysroot struct {
	BaseURL string            `yaml:"base_url"`
	DirName string            `yaml:"dir_name"`
	SHA256  map[string]string `yaml:"sha256"` // keyed by GOARCH
}

// CMake is the release URL template and per-platform tarball tags.
type CMake struct {
	URL  string            `yaml:"url"`  // {version} and {tag} placeholders
	Tags map[string]string `yaml:"tags"` // keyed by GOOS/GOARCH
}

// DefaultManifest parses the embedded manifest.
func DefaultManifest() (*Manifest, error) {
	return ParseManifest(defaultManifest)
}

// ParseManifest parses and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every field a provisioning step reads is present.
func (m *Manifest) Validate() error {
	for _, key := range []string{KeyLLVM, KeyOpam, KeyDune, KeyOCaml, KeyCMake} {
		if m.Versions[key] == "" {
			return fmt.Errorf("manifest: missing version %q", key)
		}
	}
	switch {
	case m.BuildDeps.URL == "":
		return fmt.Errorf("manifest: missing build_deps.url")
	case m.LLVM.URL == "":
		return fmt.Errorf("manifest: missing llvm.url")
	case m.Sysroot.BaseURL == "":
		return fmt.Errorf("manifest: missing sysroot.base_url")
	case m.CMake.URL == "":
		return fmt.Errorf("manifest: missing cmake.url")
	}
	if m.Sysroot.DirName == "" {
		m.Sysroot.DirName = "sysroot"
	}
	return nil
}

// Version returns the pinned version for key.
func (m *Manifest) Version(key string) string {
	return m.Versions[key]
}

// SysrootURL returns the sysroot tarball URL and its checksum for goarch.
func (m *Manifest) SysrootURL(goarch string) (url, sha256 string, err error) {
	sum, ok := m.Sysroot.SHA256[goarch]
	if !ok {
		return "", "", fmt.Errorf("%w: no sysroot for %s", ErrUnsupportedPlatform, goarch)
	}
	return strings.TrimSuffix(m.Sysroot.BaseURL, "/") + "/" + sum, sum, nil
}

// CMakeURL returns the CMake release tarball URL for goos/goarch.
func (m *Manifest) CMakeURL(goos, goarch string) (string, error) {
	tag, ok := m.CMake.Tags[goos+"/"+goarch]
	if !ok {
		return "", fmt.Errorf("%w: no CMake release for %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
	r := strings.NewReplacer("{version}", m.Version(KeyCMake), "{tag}", tag)
	return r.Replace(m.CMake.URL), nil
}

// OCamlCacheKey identifies the OCaml toolchain for CI caches:
// "<goos>;<goarch>;ocaml-X;opam-Y;dune-Z".
func (m *Manifest) OCamlCacheKey(goos, goarch string) string {
	parts := []string{goos, goarch}
	for _, key := range []string{KeyOCaml, KeyOpam, KeyDune} {
		parts = append(parts, key+"-"+m.Version(key))
	}
	return strings.Join(parts, ";")
}
