package store

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/signalsfoundry/rso-tracker/core"
	"github.com/signalsfoundry/rso-tracker/model"
)

const utf8BOM = "\ufeff"

// LoadOptions controls how malformed rows are treated.
type LoadOptions struct {
	// Strict aborts the whole load on the first row that fails to parse.
	// Otherwise such rows are collected in Result.Rejected and skipped.
	Strict bool
}

// Result is everything a load produced. Index is the header of the source
// and must be used for any further by-name access to its rows.
type Result struct {
	Records  []*model.SpaceObject
	Index    core.Index
	Rejected []*RowError
	// Lines is the number of non-blank data rows read.
	Lines int
}

// LoadRecords reads the metrics file at path.
func LoadRecords(path string, opts LoadOptions) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	return ReadRecords(f, path, opts)
}

// ReadRecords reads a metrics file from r; name is used in errors only.
//
// The first non-blank line is the header. It must name every column in
// core.RequiredColumns, otherwise a *core.MissingColumnError is returned.
func ReadRecords(r io.Reader, name string, opts LoadOptions) (*Result, error) {
	lines := newLineReader(r)

	headerLine, _, err := lines.next()
	if err == io.EOF {
		return nil, core.BuildIndex(nil).Require(core.RequiredColumns...)
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: name, Err: err}
	}
	ix := core.BuildIndex(core.ParseRow(strings.TrimPrefix(headerLine, utf8BOM)))
	if err := ix.Require(core.RequiredColumns...); err != nil {
		return nil, err
	}

	res := &Result{Index: ix}
	for {
		line, lineNo, err := lines.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &IOError{Op: "read", Path: name, Err: err}
		}

		res.Lines++
		obj, err := core.FromFields(core.ParseRow(line), ix)
		if err != nil {
			rowErr := &RowError{Line: lineNo, Err: err}
			if opts.Strict {
				return nil, rowErr
			}
			res.Rejected = append(res.Rejected, rowErr)
			continue
		}
		res.Records = append(res.Records, obj)
	}
	return res, nil
}

// lineReader yields non-blank lines with their 1-based line numbers. Line
// terminators (LF or CRLF) are stripped.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (lr *lineReader) next() (string, int, error) {
	for {
		text, err := lr.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", lr.line, err
		}
		if text == "" && err != nil {
			return "", lr.line, io.EOF
		}
		lr.line++
		text = strings.TrimSuffix(text, "\n")
		text = strings.TrimSuffix(text, "\r")
		if strings.TrimSpace(text) == "" {
			if err != nil {
				return "", lr.line, io.EOF
			}
			continue
		}
		return text, lr.line, nil
	}
}
