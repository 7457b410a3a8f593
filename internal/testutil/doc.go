// Package testutil contains helpers used across tests to reduce boilerplate
// when constructing conversation turns, pre-seeded memories and scripted
// backends. They are not intended for production usage.
package testutil
