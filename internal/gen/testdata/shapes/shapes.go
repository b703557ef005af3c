// Package shapes holds interfaces of every kind the inspector must handle.
package shapes

import "time"

// Store is a plain facade candidate.
type Store interface {
	Put(key string, value []byte)
	Delete(keys ...string)
	Flush()
}

// Scheduler takes parameters from another package.
type Scheduler interface {
	At(when time.Time, fn func())
	Every(d time.Duration, labels map[string]string)
}

// Bad has methods that return values.
type Bad interface {
	Get(key string) ([]byte, error)
	Close() error
	Ping()
}

// Sealed cannot be implemented outside this package.
type Sealed interface {
	Do()
	hidden()
}

type Number interface {
	~int | ~float64
}

type Sink[T any] interface {
	Put(v T)
}

type Plain struct{}

type journal interface {
	Append(line string)
}
