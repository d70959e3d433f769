// Package yaml wraps [github.com/goccy/go-yaml] with the decoder/encoder
// settings used across tendercheck, plus JSON Schema validation via
// [github.com/santhosh-tekuri/jsonschema/v6].
package yaml

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/token"
)

// Error represents a YAML error with optional position information.
type Error struct {
	Err   error
	Path  *yaml.Path
	Token *token.Token
}

func (e *Error) Error() string {
	if e.Path != nil {
		return fmt.Sprintf("%s: %v", e.Path.String(), e.Err)
	}
	if e.Token != nil {
		pos := e.Token.Position

		return fmt.Sprintf("line %d, column %d: %v", pos.Line, pos.Column, e.Err)
	}

	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewPathBuilder returns a goccy path builder for addressing YAML nodes.
func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

type Decoder struct {
	d *yaml.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, yaml.AllowDuplicateMapKey()),
	}
}

func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

type Encoder struct {
	e *yaml.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		e: yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true)),
	}
}

func (e *Encoder) Encode(v any) error {
	return e.e.Encode(v) //nolint:wrapcheck // Return the original error.
}

func (e *Encoder) Close() error {
	return e.e.Close() //nolint:wrapcheck // Return the original error.
}
