package version

// Version is the current version of StrangerMeet.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/adnankhan0111/StrangerMeet/internal/version.Version=v1.0.0'"
var Version = "dev"
