// Package session keeps per-user dialog progress and the route collected so
// far. State lives in memory only and is keyed by the Telegram user id.
package session
