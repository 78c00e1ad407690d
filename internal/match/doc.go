// Package match pairs anonymous clients for one-on-one conversations and
// tracks who is online, who is waiting, and which two clients share a room.
//
// All pairing state is owned by a single Hub. Matchmaking is a check-then-act
// sequence (find a qualifying waiting entry, evict it, create the room), so
// every state transition runs as one indivisible step under the Hub's write
// lock; pure relay lookups only need a consistent read snapshot.
package match
