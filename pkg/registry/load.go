package registry

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/topostack/pkg/errors"
)

// Format identifies a registry file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf infers the format from a file name extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errs.Wrap(errs.ErrCodeInvalidConfig, ErrUnknownFormat, "%s", path)
}

// Load reads, decodes and validates a registry file.
func Load(path string) (*Registry, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "registry %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read registry %s", path)
	}
	return Decode(bytes.NewReader(data), format)
}

// Decode reads a registry definition in the given format and validates it.
func Decode(r io.Reader, format Format) (*Registry, error) {
	var f File
	var err error
	switch format {
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&f)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&f)
		if err == io.EOF {
			err = nil
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	default:
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, ErrUnknownFormat, "%q", format)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode %s registry", format)
	}
	return New(f)
}

// Encode writes f in the given format.
func Encode(w io.Writer, f File, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	}
	return errs.Wrap(errs.ErrCodeInvalidFormat, ErrUnknownFormat, "%q", format)
}
