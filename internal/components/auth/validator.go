package auth

import (
	"bytes"
	_ "embed"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed credentials.schema.json
var credentialsSchema []byte

const credentialsSchemaURL = "credentials.json"

var ErrMalformedBody = errors.New("body must be a JSON object")

type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded credentials schema.
func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(credentialsSchema))
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(credentialsSchemaURL, doc); err != nil {
		return nil, err
	}
	sch, err := c.Compile(credentialsSchemaURL)
	if err != nil {
		return nil, err
	}
	return &Validator{schema: sch}, nil
}

// Credentials parses raw, trims string fields and checks them against the schema: exactly
// username (2..30) and password (4..100), both non-empty strings.
func (v *Validator) Credentials(raw []byte) (Credentials, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Credentials{}, ErrMalformedBody
	}
	obj, ok := inst.(map[string]any)
	if !ok {
		return Credentials{}, ErrMalformedBody
	}

	for k, val := range obj {
		if s, ok := val.(string); ok {
			obj[k] = strings.TrimSpace(s)
		}
	}

	if err := v.schema.Validate(obj); err != nil {
		return Credentials{}, errors.New(describe(err))
	}

	return Credentials{
		Username: obj["username"].(string),
		Password: obj["password"].(string),
	}, nil
}

// describe flattens a schema validation error into one line per failed constraint.
func describe(err error) string {
	var causes []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if cause, ok := strings.CutPrefix(line, "- "); ok {
			causes = append(causes, cause)
		}
	}
	if len(causes) == 0 {
		return err.Error()
	}
	return strings.Join(causes, "; ")
}
