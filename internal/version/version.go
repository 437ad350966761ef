package version

// Version is the current version of the Echo Tale CLI.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/RachelH1213/lab25fall-fourth-project/internal/version.Version=v1.0.0'"
var Version = "dev"
