// Package storage persists the two durable entities of the bot: subscribers
// and seen vacancy identifiers. SQLite is the single backend; every exported
// operation is one short transaction and never spans a network call.
package storage
