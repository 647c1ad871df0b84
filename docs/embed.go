// Package docs bundles long-form reference documentation with the mag
// binary, rendered by "mag docs".
package docs

import "embed"

// FS contains the bundled Markdown reference docs.
//
//go:embed reference
var FS embed.FS
