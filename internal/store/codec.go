package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed userstate.schema.json
var userStateSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// ErrInvalidState indicates a persisted document that does not match the
// UserState layout.
type ErrInvalidState struct {
	UserID string
	Err    error
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("invalid state for user %q: %v", e.UserID, e.Err)
}

func (e *ErrInvalidState) Unwrap() error { return e.Err }

func stateSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(userStateSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse state schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://userstate.json", doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("schema://userstate.json")
	})
	return compiled, compileErr
}

// DecodeUserState validates raw against the UserState layout and decodes
// it with empty collections filled in.
func DecodeUserState(userID string, raw []byte) (*UserState, error) {
	sch, err := stateSchema()
	if err != nil {
		return nil, err
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &ErrInvalidState{UserID: userID, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, &ErrInvalidState{UserID: userID, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var s UserState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &ErrInvalidState{UserID: userID, Err: err}
	}
	s.Normalize()
	return &s, nil
}

// EncodeUserState marshals the document form of s.
func EncodeUserState(s *UserState) ([]byte, error) {
	c := s.Clone()
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return b, nil
}
