package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultDefinitions []byte

// DefaultSource names the embedded definitions in errors and logs.
const DefaultSource = "<embedded>"

// File is the on-disk matcher definition document.
type File struct {
	Global   []string     `yaml:"global" validate:"dive,required"`
	Matchers []MatcherDef `yaml:"matchers" validate:"dive"`
}

// MatcherDef declares the rules for one site.
type MatcherDef struct {
	Name            string    `yaml:"name" validate:"required"`
	Hosts           []string  `yaml:"hosts" validate:"min=1,dive,required"`
	Params          []RuleDef `yaml:"params" validate:"dive"`
	Segments        []RuleDef `yaml:"segments" validate:"dive"`
	ResolveRedirect bool      `yaml:"resolve_redirect"`
	ResolvePaths    []string  `yaml:"resolve_paths" validate:"dive,required,startswith=/"`
}

// RuleDef declares one param or segment rule. Op defaults to drop.
type RuleDef struct {
	Name string    `yaml:"name" validate:"required"`
	Op   Operation `yaml:"op" validate:"omitempty,oneof=drop replace request-redirect"`
	With *string   `yaml:"with"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml field names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Default loads the definitions embedded in the binary.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultDefinitions), DefaultSource)
}

// LoadFile loads definitions from a YAML file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matcher file: %w", err)
	}
	defer f.Close()
	return Load(f, path)
}

// Load decodes, validates and compiles a matcher document. Every problem
// found is reported; nothing is returned unless the whole document is
// valid.
func Load(r io.Reader, source string) (*Registry, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Source: source, Reason: err.Error()}
	}
	return Compile(file, source)
}

// Compile validates and compiles an already decoded document.
func Compile(file File, source string) (*Registry, error) {
	var errs configErrors
	if err := validate.Struct(file); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &ConfigError{Source: source, Reason: err.Error()}
		}
		for _, fe := range verrs {
			errs.add(fieldError(file, fe))
		}
		return nil, errs.withSource(source).err()
	}

	global, err := NewGlobalModifierSet(file.Global...)
	if err != nil {
		errs.add(&ConfigError{Field: "global", Reason: err.Error()})
	}

	matchers := make([]*Matcher, 0, len(file.Matchers))
	for _, def := range file.Matchers {
		m, merrs := compileMatcher(def)
		errs = append(errs, merrs...)
		if m != nil {
			matchers = append(matchers, m)
		}
	}
	if len(errs) > 0 {
		return nil, errs.withSource(source).err()
	}

	reg, rerrs := buildRegistry(global, matchers)
	if len(rerrs) > 0 {
		return nil, rerrs.withSource(source).err()
	}
	return reg, nil
}

func compileMatcher(def MatcherDef) (*Matcher, configErrors) {
	var errs configErrors
	fail := func(field string, err error) {
		errs.add(&ConfigError{Matcher: def.Name, Field: field, Reason: err.Error()})
	}

	m := &Matcher{Name: def.Name, ResolveRedirect: def.ResolveRedirect}
	for _, h := range def.Hosts {
		hp, err := ParseHostPattern(h)
		if err != nil {
			fail("hosts", err)
			continue
		}
		m.Hosts = append(m.Hosts, hp)
	}

	var err error
	if m.Params, err = compileRules(def.Params, false); err != nil {
		fail("params", err)
	}
	if m.Segments, err = compileRules(def.Segments, true); err != nil {
		fail("segments", err)
	}

	if len(def.ResolvePaths) > 0 && !def.ResolveRedirect {
		fail("resolve_paths", errors.New("set without resolve_redirect"))
	}
	for _, p := range def.ResolvePaths {
		pp, err := CompilePathPattern(p)
		if err != nil {
			fail("resolve_paths", err)
			continue
		}
		m.ResolvePaths = append(m.ResolvePaths, pp)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return m, nil
}

func compileRules(defs []RuleDef, segments bool) ([]Rule, error) {
	out := make([]Rule, 0, len(defs))
	var errs []error
	for _, def := range defs {
		kp, err := CompileKeyPattern(def.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r := Rule{Pattern: kp, Op: def.Op}
		if r.Op == "" {
			r.Op = OpDrop
		}
		switch {
		case r.Op == OpReplace && def.With == nil:
			errs = append(errs, fmt.Errorf("rule %q: replace needs a \"with\" value", def.Name))
			continue
		case r.Op != OpReplace && def.With != nil:
			errs = append(errs, fmt.Errorf("rule %q: \"with\" is only valid for replace", def.Name))
			continue
		case segments && r.Op == OpReplace && *def.With == "":
			errs = append(errs, fmt.Errorf("rule %q: a path segment cannot be replaced with nothing, use drop", def.Name))
			continue
		case segments && kp.MatchesAll():
			errs = append(errs, fmt.Errorf("rule %q: a segment rule may not match every segment", def.Name))
			continue
		}
		if def.With != nil {
			r.With = *def.With
		}
		out = append(out, r)
	}
	return out, errors.Join(errs...)
}

func fieldError(file File, fe validator.FieldError) *ConfigError {
	// Namespace looks like "File.matchers[2].hosts"
	field := strings.TrimPrefix(fe.Namespace(), "File.")
	ce := &ConfigError{Field: field, Reason: fmt.Sprintf("failed %q validation", fe.Tag())}
	if fe.Param() != "" {
		ce.Reason = fmt.Sprintf("failed %q validation (%s)", fe.Tag(), fe.Param())
	}

	var idx int
	if _, err := fmt.Sscanf(field, "matchers[%d]", &idx); err == nil && idx < len(file.Matchers) {
		ce.Matcher = file.Matchers[idx].Name
	}
	return ce
}
