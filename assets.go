package formstate

import (
	"io/fs"

	html "github.com/goliatone/go-formstate/pkg/renderers/html"
)

// AssetsFS exposes the stylesheet bundle the HTML renderer ships with, so
// applications can serve it without an asset pipeline.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServer(http.FS(formstate.AssetsFS())),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
