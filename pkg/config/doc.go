// Package config provides the configuration record shared by a service host
// and everything it dispatches to.
//
// A HostConfig is an explicit value owned by one host. Nothing in this module
// keeps a process-wide configuration, so fixtures in the same test binary can
// run with different settings side by side.
//
// Configuration is resolved in three layers, each overriding the previous:
//
//  1. Defaults from Default()
//  2. A YAML or JSON file (format picked by extension)
//  3. DIRECTHOST_* environment variables
//
// Loading everything at once:
//
//	cfg, err := config.Load("testdata/host.yaml")
//	if err != nil {
//	    t.Fatal(err)
//	}
//
// Example file:
//
//	serviceName: items
//	debugMode: true
//	defaultContentType: application/json
//	globalResponseHeaders:
//	  X-Powered-By: directhost
//	logLevel: debug
//	logFormat: text
package config
