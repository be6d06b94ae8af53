// Package amgp builds weather maps from surface observations, upper-air
// soundings and gridded model output fetched from public data servers.
package amgp

// Version of the program. The preset file records the version it was
// written with in config_ver.
const Version = "0.2.0"
