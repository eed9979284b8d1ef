package workflow

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	ferrors "github.com/vflow-stack/flowcat/internal/errors"
)

// ValidationResult holds the outcome of validating one workflow document.
// Errors make the document invalid; warnings are advisory only.
type ValidationResult struct {
	Errors   []*ferrors.CatalogError
	Warnings []string
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// AddError appends a validation error.
func (r *ValidationResult) AddError(err *ferrors.CatalogError) {
	r.Errors = append(r.Errors, err)
}

// AddWarning appends a validation warning.
func (r *ValidationResult) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Err returns the first error, or nil when the document is valid.
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Validate checks the _meta envelope of doc against its source filename.
// It never modifies doc. Gates run in order and stop at the first failure:
// _meta present, required fields present, _meta.id equal to the filename stem.
func Validate(doc *Document, filename string) *ValidationResult {
	result := &ValidationResult{}

	if !doc.HasMeta() {
		result.AddError(ferrors.MetaMissing(filename))
		return result
	}
	meta, ok := doc.Meta()
	if !ok {
		result.AddError(ferrors.MetaNotObject(filename))
		return result
	}

	if missing := meta.Missing(); len(missing) > 0 {
		result.AddError(ferrors.MetaMissingFields(filename, missing))
		return result
	}

	expected := Stem(filename)
	actual, isString := meta.String(MetaID)
	if !isString {
		actual = meta.Raw(MetaID)
	}
	if !isString || actual != expected {
		result.AddError(ferrors.MetaIDMismatch(filename, expected, actual))
		return result
	}

	warnTypes(meta, result)
	return result
}

// warnTypes flags values the catalog will replace with a fallback, and
// versions that are not semantic versions.
func warnTypes(meta Meta, result *ValidationResult) {
	for _, key := range []string{MetaName, MetaDescription, MetaAuthor, MetaVersion} {
		if _, ok := meta.String(key); !ok {
			result.AddWarning("_meta.%s is %s, not a string; the catalog uses the default", key, meta.Raw(key))
		}
	}

	if v, ok := meta.String(MetaVersion); ok && !IsSemver(v) {
		result.AddWarning("_meta.version %q is not a semantic version", v)
	}

	if _, ok := meta.Int(MetaLevel); !ok {
		result.AddWarning("_meta.vFlowLevel is %s, not an integer; the catalog uses the default", meta.Raw(MetaLevel))
	}

	for _, key := range []string{MetaHomepage, MetaUpdatedAt} {
		if meta.Has(key) {
			if _, ok := meta.String(key); !ok {
				result.AddWarning("_meta.%s is %s, not a string; the catalog uses the default", key, meta.Raw(key))
			}
		}
	}
	if meta.Has(MetaTags) {
		if _, ok := meta.Strings(MetaTags); !ok {
			result.AddWarning("_meta.tags is %s, not a list of strings; the catalog uses the default", meta.Raw(MetaTags))
		}
	}
}

// IsSemver reports whether v is a semantic version, with or without a leading "v".
func IsSemver(v string) bool {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v)
}
