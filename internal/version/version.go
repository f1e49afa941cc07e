package version

// Set via -ldflags at build time.
var (
	AppName = "nbot"
	Version = "dev"
)
