package store

import (
	"bufio"
	"io"
	"os"

	"github.com/signalsfoundry/rso-tracker/core"
	"github.com/signalsfoundry/rso-tracker/model"
)

// PersistRecords writes the documented header followed by one row per record
// to path, replacing any existing file.
//
// The write is not atomic: a failure part way through leaves a truncated file.
func PersistRecords(records []*model.SpaceObject, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteRecords(w, records)
	})
}

// WriteRecords writes the header and records to w.
func WriteRecords(w io.Writer, records []*model.SpaceObject) error {
	if _, err := io.WriteString(w, core.HeaderRow()+"\n"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := io.WriteString(w, core.SerializeRow(r)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteProjection writes a projection report to path, header row first.
func WriteProjection(p core.Projection, path string) error {
	return writeFile(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, p.HeaderRow()+"\n"); err != nil {
			return err
		}
		for i := range p.Rows {
			if _, err := io.WriteString(w, p.RowText(i)+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeFile(path string, body func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	bw := bufio.NewWriter(f)
	if err := body(bw); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
