package types

// Version is the canonical project version.
// The CLI, wire protocol, and embedded worker shim share this version
// per the lockstep versioning policy.
const Version = "0.3.0"
