package codegen

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/tools/imports"

	"github.com/teranos/wiregen/errors"
)

// formatSource normalizes one rendered file. The default path runs the
// goimports machinery in process, which both formats and prunes unused
// imports. A configured formatCommand replaces it with an external tool
// invoked as `cmd args... <file>` against a staged copy.
func formatSource(settings Settings, name string, src []byte) ([]byte, error) {
	if settings.FormatCommand != "" {
		return formatExternal(settings.FormatCommand, name, src)
	}
	out, err := imports.Process(name, src, nil)
	if err != nil {
		return nil, errors.Wrap(err, "goimports")
	}
	return out, nil
}

func formatExternal(command, name string, src []byte) ([]byte, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing formatCommand %q", command)
	}
	if len(words) == 0 {
		return nil, errors.Newf("formatCommand %q has no command word", command)
	}

	dir, err := os.MkdirTemp("", "wiregen-fmt-*")
	if err != nil {
		return nil, errors.Wrap(err, "staging format dir")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, src, 0o600); err != nil {
		return nil, errors.Wrap(err, "staging source")
	}

	cmd := exec.Command(words[0], append(words[1:], path)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, errors.Wrapf(err, "%s: %s", words[0], strings.TrimSpace(string(out)))
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading formatted source")
	}
	return out, nil
}
