package types

import "net/url"

// Resource describes the thing being sold: where it lives, what it is, and
// optionally what a successful response looks like. Values are constructed
// through NewResource and treated as immutable afterwards.
type Resource struct {
	// Absolute URL of the resource.
	URL string

	// Human-readable description of the resource.
	Description string

	// MIME type of the resource response.
	MimeType string

	// Optional discovery metadata for the resource response.
	OutputSchema map[string]interface{}
}

// NewResource builds a validated Resource. The URL must be absolute.
func NewResource(rawURL, description, mimeType string) (*Resource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewX402Error(ErrConfigError, "resource url %q is not valid: %v", rawURL, err)
	}

	if !u.IsAbs() {
		return nil, NewX402Error(ErrConfigError, "resource url %q must be absolute", rawURL)
	}

	return &Resource{
		URL:         rawURL,
		Description: description,
		MimeType:    mimeType,
	}, nil
}

// WithSchema returns a copy of the resource carrying the given output schema.
func (r *Resource) WithSchema(schema map[string]interface{}) *Resource {
	out := *r
	out.OutputSchema = schema
	return &out
}
