package deps

import "github.com/Masterminds/semver/v3"

// Module paths and minimum versions of the client runtime that generated
// code links against. Bump versions here when the runtime grows features the
// generator starts emitting calls to.
const (
	runtimeModule  = "github.com/teranos/wirerpc"
	runtimeVersion = "v1.4.0"

	runtimeHTTPModule  = "github.com/teranos/wirerpc-http"
	runtimeHTTPVersion = "v1.2.0"
)

// goVersionFloor maps module sources to the minimum go directive their use
// imposes on the generated module.
var goVersionFloor = map[string]string{
	runtimeModule:     "1.21",
	runtimeHTTPModule: "1.21",
}

// Runtime is the core client runtime package.
func Runtime() Dependency {
	return Dependency{
		Type:       TypeModule,
		Source:     runtimeModule,
		ImportPath: runtimeModule,
		Alias:      "wirerpc",
		Version:    runtimeVersion,
	}
}

// RuntimeMiddleware is the middleware stack package.
func RuntimeMiddleware() Dependency {
	d := Runtime()
	d.ImportPath = runtimeModule + "/middleware"
	d.Alias = ""
	return d
}

// RuntimeJSON is the streaming JSON value codec used by generated serde.
func RuntimeJSON() Dependency {
	d := Runtime()
	d.ImportPath = runtimeModule + "/encoding/json"
	d.Alias = "wirejson"
	return d
}

// RuntimeAuth is the auth scheme registry package.
func RuntimeAuth() Dependency {
	d := Runtime()
	d.ImportPath = runtimeModule + "/auth"
	d.Alias = ""
	return d
}

// RuntimeStream holds the streaming payload interfaces.
func RuntimeStream() Dependency {
	d := Runtime()
	d.ImportPath = runtimeModule + "/stream"
	d.Alias = ""
	return d
}

// RuntimeDocument holds the open-content document type.
func RuntimeDocument() Dependency {
	d := Runtime()
	d.ImportPath = runtimeModule + "/document"
	d.Alias = ""
	return d
}

// RuntimePtr holds the pointer conversion helpers deserializers lean on.
func RuntimePtr() Dependency {
	d := Runtime()
	d.ImportPath = runtimeModule + "/ptr"
	d.Alias = ""
	return d
}

// RuntimeHTTP is the HTTP transport, a separate module that itself requires
// the core runtime.
func RuntimeHTTP() Dependency {
	return Dependency{
		Type:       TypeModule,
		Source:     runtimeHTTPModule,
		ImportPath: runtimeHTTPModule,
		Alias:      "wirehttp",
		Version:    runtimeHTTPVersion,
		Parents:    []Dependency{Runtime()},
	}
}

// Stdlib wraps a standard library import path as a dependency.
func Stdlib(path string) Dependency {
	return Dependency{Type: TypeStandard, ImportPath: path}
}

// Standard library imports generated code reaches for.
var (
	StdContext = Stdlib("context")
	StdFmt     = Stdlib("fmt")
	StdTime    = Stdlib("time")
	StdBig     = Stdlib("math/big")
	StdHTTP    = Stdlib("net/http")
	StdStrconv = Stdlib("strconv")
	StdBytes   = Stdlib("bytes")
)

// GoDirective returns the go directive for the manifest: the configured
// floor raised to any minimum a module in the set imposes.
func GoDirective(configured string, modules []Dependency) string {
	out := configured
	for _, d := range modules {
		floor, ok := goVersionFloor[d.Source]
		if !ok {
			continue
		}
		if compareGoVersions(floor, out) > 0 {
			out = floor
		}
	}
	return out
}

func compareGoVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		switch {
		case a == b:
			return 0
		case a < b:
			return -1
		default:
			return 1
		}
	}
	return va.Compare(vb)
}
