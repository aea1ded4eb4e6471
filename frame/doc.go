// Package frame implements the STOMP 1.2 frame codec used by the realtime
// transport.
//
// A frame is one protocol unit: a command, ordered headers, and an optional
// body. Encode and Decode are pure functions over byte slices with no socket
// dependency, so malformed and edge-case frames can be tested exhaustively
// without a live connection.
//
// Wire format:
//
//	COMMAND\n
//	key:value\n
//	...\n
//	\n
//	body\x00
//
// Header values are split on the first colon only; a value may itself contain
// colons. A frame consisting of a single newline is a heartbeat.
package frame
