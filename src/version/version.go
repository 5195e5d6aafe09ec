package version

// Version is the CLI version string, overridable at build time via -ldflags.
var Version = "0.1.0"
