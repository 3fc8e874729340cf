package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/topology"
)

// =============================================================================
// Dataset Serialization API
// =============================================================================

// ReadDataset decodes a relation file from r.
func ReadDataset(r io.Reader, rel topology.Relation) (topology.Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return topology.Dataset{Relation: rel}, errs.Wrap(errs.ErrCodeInvalidDataset, err, "decode %s dataset", rel)
	}
	return d.Topology(rel), nil
}

// ReadDatasetFile reads a relation file. A missing file is reported with
// code FILE_NOT_FOUND so callers can degrade to an empty relation.
func ReadDatasetFile(path string, rel topology.Relation) (topology.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return topology.Dataset{Relation: rel}, errs.Wrap(errs.ErrCodeFileNotFound, err, "%s dataset %s", rel, path)
		}
		return topology.Dataset{Relation: rel}, errs.Wrap(errs.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	d, err := ReadDataset(f, rel)
	if err != nil {
		return d, errs.Wrap(errs.ErrCodeInvalidDataset, err, "%s", path)
	}
	return d, nil
}

// WriteDataset writes d as indented JSON.
func WriteDataset(w io.Writer, d topology.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromTopology(d))
}

// MarshalDataset converts d to JSON bytes.
func MarshalDataset(d topology.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDataset(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDatasetFile writes d to path with 0644 permissions.
func WriteDatasetFile(path string, d topology.Dataset) error {
	data, err := MarshalDataset(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
