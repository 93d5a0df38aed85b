package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// submissionSchema constrains submission payloads before any compilation or
// benchmarking happens: a non-empty name of sane length, bounded source size,
// and bounded game counts.
const submissionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "sourceCode"],
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 64},
    "sourceCode": {"type": "string", "minLength": 1, "maxLength": 65536},
    "numGames": {"type": "integer", "minimum": 1, "maximum": 100},
    "startSeed": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

var compiledSubmissionSchema = jsonschema.MustCompileString("submission.schema.json", submissionSchema)

// decodeAndValidate reads the request body, validates it against the schema,
// then decodes it into dst.
func decodeAndValidate(r io.Reader, schema *jsonschema.Schema, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("payload validation: %w", err)
	}

	return json.NewDecoder(bytes.NewReader(body)).Decode(dst)
}
