package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Registry validates JSON documents against named schema files from the
// repository's schemas directory. Compiled schemas are cached per name.
type Registry struct {
	dir string

	mu    sync.Mutex
	cache map[string]*gojsonschema.Schema
}

// NewRegistry creates a Registry rooted at dir. An empty dir resolves the
// default "schemas" directory relative to the working directory.
func NewRegistry(dir string) *Registry {
	if dir == "" {
		dir = ResolveSchemaPath("schemas")
	}
	return &Registry{
		dir:   dir,
		cache: make(map[string]*gojsonschema.Schema),
	}
}

// Validate checks jsonData against the schema named name (stored as
// <name>.schema.json under the registry directory).
func (r *Registry) Validate(name string, jsonData []byte) error {
	schema, err := r.schema(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return &SchemaLoadError{
			Path:    name,
			Message: "document could not be validated",
			Cause:   err,
		}
	}
	if result.Valid() {
		return nil
	}
	return newValidationError(result)
}

func (r *Registry) schema(name string) (*gojsonschema.Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if schema, ok := r.cache[name]; ok {
		return schema, nil
	}

	path := filepath.Join(r.dir, name+".schema.json")
	if _, err := os.Stat(path); err != nil {
		return nil, &SchemaLoadError{
			Path:    path,
			Message: "schema file not found",
			Cause:   err,
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &SchemaLoadError{
			Path:    path,
			Message: "failed to resolve schema path",
			Cause:   err,
		}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader(fmt.Sprintf("file://%s", abs)))
	if err != nil {
		return nil, &SchemaLoadError{
			Path:    abs,
			Message: "failed to compile schema",
			Cause:   err,
		}
	}

	r.cache[name] = schema
	return schema, nil
}
