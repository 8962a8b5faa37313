// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// Each function is called in order by app.Run, from configuration
// loading through DB setup, one-time startup work, HTTP handler
// construction, and finally graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratashelter", // used only for logging/diagnostics
	LoadConfig:     LoadConfig,      // load core + app config
	ValidateConfig: ValidateConfig,  // connection settings, salt, keys
	ConnectDB:      ConnectDB,       // open the shelter client
	EnsureSchema:   EnsureSchema,    // create indexes
	Startup:        Startup,         // start maintenance jobs
	BuildHandler:   BuildHandler,    // build the HTTP router + middleware stack
	Shutdown:       Shutdown,        // stop jobs, disconnect
}
