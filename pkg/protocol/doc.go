// Package protocol defines the messages exchanged between a host and the
// widget runtime: init payloads, commands, the legacy combined update, and
// the data events sent back. Field names are the canonical snake_case ones;
// alternative spellings are rejected on decode.
package protocol
