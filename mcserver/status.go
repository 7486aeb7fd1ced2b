package mcserver

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"sync/atomic"
)

// Status is the information the game layer reports in answer to a
// server-list ping.
type Status struct {
	PlayersMax    int
	PlayersOnline int
	Description   string
	Favicon       string // empty means the favicon key is omitted entirely
}

// errGameDisconnected is returned by requestStatus when the status-request
// sink is closed, a request is answered by closing respond instead of
// calling Respond, or a request is dropped unanswered.
var errGameDisconnected = errors.New("mcserver: game disconnected")

// statusCleanupArgs is what a StatusRequest's cleanup closes over. It must
// not itself hold a reference back to the guard runtime.AddCleanup is
// registered against, or the guard would never become unreachable.
type statusCleanupArgs struct {
	respond chan Status
	done    *atomic.Bool
}

func closeUnansweredStatusRequest(a statusCleanupArgs) {
	if a.done.CompareAndSwap(false, true) {
		close(a.respond)
	}
}

// StatusRequest is a one-shot handed to the game layer over Server's
// status-request sink. The game layer must call Respond exactly once.
//
// Unlike a oneshot channel in languages with deterministic destructors,
// Go gives a dropped value no synchronous drop hook: a buggy game layer
// that reads a StatusRequest off the sink and then simply forgets it
// (never calls Respond, never cancels the connection's context) would
// otherwise leave requestStatus blocked forever instead of resolving to
// "game disconnected" per the one-shot's documented drop semantics. guard
// exists solely so runtime.AddCleanup can observe that moment: once every
// copy of this StatusRequest is unreachable, the cleanup fires and closes
// respond itself, which is exactly what an explicit-but-never-arriving
// Respond would have done.
type StatusRequest struct {
	guard   *int
	respond chan Status
	done    *atomic.Bool
}

func newStatusRequest() (StatusRequest, <-chan Status) {
	respond := make(chan Status, 1)
	done := &atomic.Bool{}
	guard := new(int)
	runtime.AddCleanup(guard, closeUnansweredStatusRequest, statusCleanupArgs{respond: respond, done: done})
	return StatusRequest{guard: guard, respond: respond, done: done}, respond
}

// Respond delivers stats to the waiting connection. It must be called at
// most once; a second call is a no-op.
func (r StatusRequest) Respond(s Status) {
	if r.done.CompareAndSwap(false, true) {
		r.respond <- s
		close(r.respond)
	}
}

// sendToGame pushes v into one of the game layer's sinks. The sinks are
// plain multi-writer channels the game layer owns; a game layer that shuts
// down by closing one while connections are still live would otherwise
// crash the process, since a send on a closed channel panics even inside a
// select. That panic is recovered here and reported as
// errGameDisconnected, which ends just the one connection.
func sendToGame[T any](ctx context.Context, sink chan<- T, v T) (err error) {
	defer func() {
		if recover() != nil {
			err = errGameDisconnected
		}
	}()
	select {
	case sink <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestStatus opens a one-shot rendezvous with the game layer over sink
// and waits for either a response or ctx cancellation.
func requestStatus(ctx context.Context, sink chan<- StatusRequest) (Status, error) {
	req, respond := newStatusRequest()
	if err := sendToGame(ctx, sink, req); err != nil {
		return Status{}, err
	}

	select {
	case s, ok := <-respond:
		if !ok {
			return Status{}, errGameDisconnected
		}
		return s, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

type statusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type statusPlayers struct {
	Max    int   `json:"max"`
	Online int   `json:"online"`
	Sample []any `json:"sample"`
}

type statusDescription struct {
	Text string `json:"text"`
}

type statusDocument struct {
	Version     statusVersion     `json:"version"`
	Players     statusPlayers     `json:"players"`
	Description statusDescription `json:"description"`
	Favicon     string            `json:"favicon,omitempty"`
}

// renderStatusJSON builds the server-list ping JSON body for s, matching
// the exact shape (and favicon-omitted-when-absent behavior) the wire
// protocol requires.
func renderStatusJSON(s Status) (string, error) {
	doc := statusDocument{
		Version:     statusVersion{Name: "1.13.2", Protocol: 404},
		Players:     statusPlayers{Max: s.PlayersMax, Online: s.PlayersOnline, Sample: []any{}},
		Description: statusDescription{Text: s.Description},
		Favicon:     s.Favicon,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
