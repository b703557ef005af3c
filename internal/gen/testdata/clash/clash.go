// Package clash declares an identifier actorgen would generate.
package clash

type Ledger interface {
	Post(amount int64)
}

type ledgerActor struct{}

func (ledgerActor) Post(int64) {}

type Actor interface {
	Act()
}

// actor takes the name generated files import package actor under.
var actor = "taken"
