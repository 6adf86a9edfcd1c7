// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"time"

	"github.com/bureau-foundation/mould/lib/clock"
	"github.com/bureau-foundation/mould/lib/mould"
)

// Reply is the outcome of one console request.
type Reply struct {
	Value   any
	Err     error
	Elapsed time.Duration
}

// Canceler cancels an outstanding request. *mould.Handle implements it.
type Canceler interface {
	Cancel() error
}

// Caller issues the console's request. reply is called at most once,
// from any goroutine; it is never called after a successful Cancel.
type Caller interface {
	Call(reply func(Reply)) (Canceler, error)
}

// ClientCaller issues one fixed request through a mould client.
type ClientCaller struct {
	Client  *mould.Client
	Service string
	Action  string
	Payload any

	// Clock measures Reply.Elapsed. Defaults to clock.Real().
	Clock clock.Clock
}

// Call implements Caller.
func (caller *ClientCaller) Call(reply func(Reply)) (Canceler, error) {
	timeSource := caller.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	started := timeSource.Now()
	handle, err := mould.Request(caller.Client, caller.Service, caller.Action, caller.Payload,
		func(result mould.Result[any]) {
			reply(Reply{
				Value:   result.Value,
				Err:     result.Err,
				Elapsed: timeSource.Now().Sub(started),
			})
		})
	if err != nil {
		return nil, err
	}
	return handle, nil
}
