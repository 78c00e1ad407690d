// Package signaling implements the WebSocket event stream between browser
// clients and the matchmaking hub: matchmaking requests in, pairing
// notifications out, and verbatim relay of offer/answer/ICE/chat payloads
// between the two members of a room.
package signaling
