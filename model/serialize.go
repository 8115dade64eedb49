package model

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sqlscore/sqlscore/compress"
	"github.com/sqlscore/sqlscore/errs"
)

// FormatVersion is the current version of the persisted model format.
const FormatVersion = 1

// Field names of the persisted format.
const (
	fieldVersion     = "version"
	fieldIntercept   = "intercept"
	fieldTerms       = "terms"
	fieldCoefficient = "coefficient"
	fieldKind        = "kind"
	fieldVariable    = "variable"
	fieldLevel       = "level"
)

// Marshal encodes the model into its YAML form: one record per term, keyed
// by term name, document order preserved. Coefficients are written as
// shortest-exact text floats, so Unmarshal(Marshal(m)) reproduces every
// coefficient bit for bit.
//
// The model is validated first; a malformed model is never written.
func Marshal(m *Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	terms := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range m.Terms {
		record := &yaml.Node{Kind: yaml.MappingNode}
		record.Content = append(record.Content,
			strNode(fieldCoefficient), floatNode(t.Coefficient),
			strNode(fieldKind), strNode(t.Kind.String()),
		)
		if t.Kind == KindCategoricalLevel {
			record.Content = append(record.Content,
				strNode(fieldVariable), strNode(t.Variable),
				strNode(fieldLevel), strNode(t.Level),
			)
		}
		terms.Content = append(terms.Content, strNode(t.Name), record)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content,
		strNode(fieldVersion), intNode(FormatVersion),
		strNode(fieldIntercept), floatNode(m.Intercept),
		strNode(fieldTerms), terms,
	)

	return yaml.Marshal(root)
}

// Unmarshal decodes a persisted model. Malformed input (bad YAML, unknown
// fields or kinds, missing coefficients, duplicate terms, an unsupported
// version) aborts with an error wrapping ErrMalformedModel or the more
// specific sentinel; no partial model is ever returned.
func Unmarshal(data []byte) (*Model, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedModel, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", errs.ErrMalformedModel)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", errs.ErrMalformedModel)
	}

	m := &Model{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: non-scalar field name at line %d", errs.ErrMalformedModel, key.Line)
		}
		switch key.Value {
		case fieldVersion:
			v, err := strconv.Atoi(val.Value)
			if err != nil || v != FormatVersion {
				return nil, fmt.Errorf("%w: unsupported version %q", errs.ErrMalformedModel, val.Value)
			}
		case fieldIntercept:
			f, err := decodeFloat(val)
			if err != nil {
				return nil, fmt.Errorf("intercept: %w", err)
			}
			m.Intercept = f
		case fieldTerms:
			terms, err := decodeTerms(val)
			if err != nil {
				return nil, err
			}
			m.Terms = terms
		default:
			return nil, fmt.Errorf("%w: unknown field %q", errs.ErrMalformedModel, key.Value)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// WriteFile marshals the model and writes it to path, compressing with the
// codec implied by the file extension (.gz, .zst, .lz4, .s2; anything else
// is written verbatim).
func WriteFile(path string, m *Model) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}

	packed, err := compress.ForPath(path).Compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress model file: %w", err)
	}

	return os.WriteFile(path, packed, 0o644)
}

// ReadFile reads and unmarshals a model file, decompressing by file
// extension first.
func ReadFile(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data, err := compress.ForPath(path).Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedModel, err)
	}

	return Unmarshal(data)
}

// decodeTerms walks the terms mapping in document order.
func decodeTerms(node *yaml.Node) ([]Term, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: terms must be a mapping", errs.ErrMalformedModel)
	}

	terms := make([]Term, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, record := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, fmt.Errorf("%w: term name at line %d", errs.ErrMalformedModel, key.Line)
		}
		if _, dup := seen[key.Value]; dup {
			return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateTerm, key.Value)
		}
		seen[key.Value] = struct{}{}

		t, err := decodeTerm(key.Value, record)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}

	return terms, nil
}

// decodeTerm decodes a single term record.
func decodeTerm(name string, record *yaml.Node) (Term, error) {
	if record.Kind != yaml.MappingNode {
		return Term{}, fmt.Errorf("%w: term %q must be a mapping", errs.ErrMalformedModel, name)
	}

	t := Term{Name: name}
	sawCoefficient, sawKind := false, false
	for i := 0; i+1 < len(record.Content); i += 2 {
		key, val := record.Content[i], record.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return Term{}, fmt.Errorf("%w: term %q has a non-scalar field name", errs.ErrMalformedModel, name)
		}
		switch key.Value {
		case fieldCoefficient:
			f, err := decodeFloat(val)
			if err != nil {
				return Term{}, fmt.Errorf("term %q: %w", name, err)
			}
			t.Coefficient = f
			sawCoefficient = true
		case fieldKind:
			kind := KindFromString(val.Value)
			if kind == 0 {
				return Term{}, fmt.Errorf("%w: term %q has unknown kind %q", errs.ErrMalformedModel, name, val.Value)
			}
			t.Kind = kind
			sawKind = true
		case fieldVariable:
			t.Variable = val.Value
		case fieldLevel:
			t.Level = val.Value
		default:
			return Term{}, fmt.Errorf("%w: term %q has unknown field %q", errs.ErrMalformedModel, name, key.Value)
		}
	}

	if !sawCoefficient {
		return Term{}, fmt.Errorf("%w: term %q has no coefficient", errs.ErrMalformedModel, name)
	}
	if !sawKind {
		return Term{}, fmt.Errorf("%w: term %q has no kind", errs.ErrMalformedModel, name)
	}

	return t, nil
}

// decodeFloat parses a text-formatted float scalar.
func decodeFloat(node *yaml.Node) (float64, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("%w: expected a scalar float at line %d", errs.ErrMalformedModel, node.Line)
	}

	f, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad float %q", errs.ErrMalformedModel, node.Value)
	}

	return f, nil
}

func strNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func intNode(value int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(value)}
}

// floatNode renders a coefficient as a quoted text float: the shortest
// representation that parses back to the identical bits.
func floatNode(f float64) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.DoubleQuotedStyle,
		Tag:   "!!str",
		Value: strconv.FormatFloat(f, 'g', -1, 64),
	}
}
