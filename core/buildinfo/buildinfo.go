// Package buildinfo carries release metadata stamped in by the linker:
//
//	go build -ldflags "-X github.com/m3rciful/routeweather/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/routeweather/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/routeweather/core/buildinfo.Date=$(date -u +%FT%TZ)"
package buildinfo

var (
	// Version is the release tag; "dev" for local builds.
	Version = "dev"
	// Commit is the short revision the binary was built from.
	Commit = "local"
	// Date is the RFC 3339 build time, empty when not stamped.
	Date = ""
)
