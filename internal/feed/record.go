// Package feed replays recorded document mutations against a live document.
//
// A feed is a stream of JSON lines, one Record per line, addressing nodes by
// simple XPaths such as /html/body/div[2]/p or /html/body/p/text()[2].
package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/namesake/internal/errors"
)

// Op is the kind of a recorded mutation.
type Op string

const (
	OpInsert  Op = "insert"   // parse HTML and append it under XPath
	OpRemove  Op = "remove"   // detach the node at XPath
	OpText    Op = "text"     // set the data of the text node at XPath
	OpAttr    Op = "attr"     // set attribute Name to Value
	OpAttrDel Op = "attr_del" // remove attribute Name
	OpFrame   Op = "frame"    // let one rendering frame pass
)

// Record is a single recorded mutation.
type Record struct {
	Op    Op     `json:"op"`
	XPath string `json:"xpath,omitempty"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
	HTML  string `json:"html,omitempty"`
}

// Validate checks that the fields the op needs are present.
func (r Record) Validate() error {
	switch r.Op {
	case OpFrame:
		return nil
	case OpInsert, OpRemove, OpText:
	case OpAttr, OpAttrDel:
		if r.Name == "" {
			return errors.NewValidationError(errors.ErrCodeValidationFailed,
				fmt.Sprintf("%s record needs an attribute name", r.Op))
		}
	default:
		return errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("unknown op %q", r.Op))
	}
	if !strings.HasPrefix(r.XPath, "/") {
		return errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("%s record needs an absolute xpath, got %q", r.Op, r.XPath))
	}
	return nil
}

// maxLine bounds a single record, which may carry a large HTML fragment.
const maxLine = 4 << 20

// Decoder reads records from a JSON-lines stream. Blank lines are skipped.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Decoder{scanner: scanner}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (d *Decoder) Next() (Record, error) {
	for d.scanner.Scan() {
		d.line++
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return Record{}, errors.WrapParse(err, errors.ErrCodeParseFailed,
				fmt.Sprintf("line %d is not a record", d.line)).WithContext("line", d.line)
		}
		if err := rec.Validate(); err != nil {
			return Record{}, errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeValidationFailed,
				fmt.Sprintf("line %d", d.line)).WithContext("line", d.line)
		}
		return rec, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Record{}, errors.WrapIO(err, errors.ErrCodeParseFailed, "failed to read feed")
	}
	return Record{}, io.EOF
}

// Decode reads every record from r.
func Decode(r io.Reader) ([]Record, error) {
	dec := NewDecoder(r)
	var records []Record
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Encode writes records to w as JSON lines.
func Encode(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to write feed")
		}
	}
	return nil
}
