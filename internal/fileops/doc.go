// Package fileops copies or moves inbound media into the library.
//
// Every operation validates the source extension against the configured video
// set and refuses destinations outside the media root before touching the
// filesystem. Copies are hashed on both sides and land under a temporary name
// that is renamed into place, so a crash never leaves a truncated file at the
// canonical path. Moves fall back to copy-and-remove across devices.
package fileops
