package formhttp

import "net/http"

// Component bundles the form handler, its configuration, and routing helpers
// behind one extraction-friendly wrapper.
type Component struct {
	opts Options
}

// New constructs a new component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns a net/http handler serving the component routes.
func (c *Component) Handler() (http.Handler, error) {
	if c == nil {
		return NewHandler()
	}
	return HandlerWithOptions(c.opts)
}

// RegisterRoutes registers the component subtree under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.opts)
}
