package ruleset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tomat0w0/bid-anti-corruption/pkg/expr"
	"github.com/tomat0w0/bid-anti-corruption/pkg/postcheck"
	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
	"github.com/tomat0w0/bid-anti-corruption/pkg/yaml"
)

// ErrNoChange signals that the rule source checksum matches the last
// accepted snapshot; no new version is published.
var ErrNoChange = errors.New("rule source unchanged")

// LoadError aggregates every violation found in one load attempt. A load
// either rejects with at least one error or publishes a snapshot where all
// patterns compile and all post-check names resolve.
type LoadError struct {
	Errs []error
}

func (e *LoadError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("load rule set: %s", strings.Join(msgs, "; "))
}

func (e *LoadError) Unwrap() []error {
	return e.Errs
}

// Loader parses and validates rule sources into [Snapshot]s. It remembers
// the checksum of the last accepted snapshot to detect no-op reloads.
type Loader struct {
	registry  *postcheck.Registry
	env       *expr.Environment
	validator *yaml.Validator

	mu           sync.Mutex
	lastChecksum string
	version      uint64
}

// LoaderOpt is a functional option for configuring a [Loader].
type LoaderOpt func(*Loader)

// WithRegistry sets the post-check registry names are resolved against.
func WithRegistry(g *postcheck.Registry) LoaderOpt {
	return func(l *Loader) {
		l.registry = g
	}
}

// WithValidator sets a custom schema validator.
func WithValidator(v *yaml.Validator) LoaderOpt {
	return func(l *Loader) {
		l.validator = v
	}
}

// NewLoader creates a [Loader]. By default it resolves post-check names
// against the built-in registry and validates sources against the embedded
// schema.
func NewLoader(opts ...LoaderOpt) (*Loader, error) {
	env, err := expr.NewEnvironment()
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	l := &Loader{
		registry:  postcheck.NewDefault(),
		env:       env,
		validator: DefaultValidator,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Load parses the source into a new [Snapshot]. It returns [ErrNoChange] if
// the source checksum matches the last accepted snapshot, or a [*LoadError]
// listing every violation. No partially-valid snapshot is ever returned.
func (l *Loader) Load(data []byte) (*Snapshot, error) {
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	l.mu.Lock()
	defer l.mu.Unlock()

	if checksum == l.lastChecksum {
		return nil, ErrNoChange
	}

	rules, err := l.parse(data)
	if err != nil {
		return nil, err
	}

	l.version++
	l.lastChecksum = checksum

	return newSnapshot(l.version, checksum, rules), nil
}

// LoadFile loads a rule source from the given path.
func (l *Loader) LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule source: %w", err)
	}

	return l.Load(data)
}

func (l *Loader) parse(data []byte) ([]*rule.Rule, error) {
	var anyDoc any

	dec := yaml.NewDecoder(bytes.NewReader(data))

	err := dec.Decode(&anyDoc)
	if err != nil {
		return nil, &LoadError{Errs: []error{err}}
	}

	if l.validator != nil {
		err = l.validator.Validate(anyDoc)
		if err != nil {
			return nil, &LoadError{Errs: []error{err}}
		}
	}

	rs := NewRuleSet()

	dec = yaml.NewDecoder(bytes.NewReader(data))

	err = dec.Decode(rs)
	if err != nil {
		return nil, &LoadError{Errs: []error{err}}
	}

	var errs []error

	seen := make(map[string]struct{}, len(rs.Rules))

	for _, r := range rs.Rules {
		err := r.Compile(l.env)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if _, dup := seen[r.ID]; dup {
			errs = append(errs, fmt.Errorf("rule %q: duplicate id", r.ID))

			continue
		}

		seen[r.ID] = struct{}{}

		if r.PostCheck != "" {
			_, err := l.registry.Resolve(r.PostCheck)
			if err != nil {
				errs = append(errs, fmt.Errorf("rule %q: %w", r.ID, err))
			}
		}
	}

	if len(errs) > 0 {
		return nil, &LoadError{Errs: errs}
	}

	return rs.Rules, nil
}
