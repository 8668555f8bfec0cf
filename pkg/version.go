package mdtrack

// Version is the current release of mdtrack.
const Version = "0.2.0"
