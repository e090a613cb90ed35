package migrate

import "embed"

// Embedded carries the SQL migrations so binaries can migrate without the source tree.
//
//go:embed migrations/*.sql
var Embedded embed.FS
