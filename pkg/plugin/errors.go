package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation needs a live session
	// and none is established.
	ErrNotConnected = errors.New("database connection not established")

	// ErrPoolExhausted is returned when a connection's session limit is
	// reached and no idle session can be reused.
	ErrPoolExhausted = errors.New("session pool exhausted")
)

// ConnectError wraps a failure to dial a backend.
type ConnectError struct {
	Type string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Type, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError wraps a failed statement together with its SQL.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// TxError wraps a transaction control failure (begin, commit, rollback).
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// UnsupportedError reports an operation the backend cannot perform.
type UnsupportedError struct {
	Op   string
	Type string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported by %s", e.Op, e.Type)
}
