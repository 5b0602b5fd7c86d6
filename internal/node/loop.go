// SPDX-License-Identifier: MIT
package node

import (
	"context"
	"errors"
	"strings"
	"time"

	"beewatch/internal/command"
	applog "beewatch/internal/log"
)

// Tick runs one control loop iteration: take at most one console line, poll
// the server when the sync interval has passed, then execute at most one
// queued command.
func (n *Node) Tick(ctx context.Context, now time.Time) {
	n.pollInput()

	if n.syncer != nil && n.syncer.Due(now) {
		cmds, err := n.syncer.Sync(ctx, now, n.sys.NodeID)
		n.metrics.Request("poll", err)
		for _, c := range cmds {
			n.queue.Push(c)
		}
	}

	if c, ok := n.queue.Pop(); ok {
		n.Execute(ctx, c)
	}
}

func (n *Node) pollInput() {
	if n.in == nil {
		return
	}
	line, ok := n.in.Poll()
	if !ok {
		return
	}
	c, err := command.Parse(line)
	switch {
	case err == nil:
		n.queue.Push(c)
	case errors.Is(err, command.ErrEmpty):
	case errors.Is(err, command.ErrUnknown):
		n.printf("Unknown command: %c\n", []rune(strings.TrimSpace(line))[0])
		n.printf("%s\n", command.UsageCommands)
	default:
		n.printf("%v\n", err)
	}
}

// Banner prints the startup banner and command list.
func (n *Node) Banner() {
	n.printf("\n=== BEEWATCH %s ===\n", strings.ToUpper(n.version))
	n.printf("Node: %s  Server: %s\n", n.sys.NodeID, n.sys.ServerAddr())
	n.printf("%s\n", command.Help)
	if n.mock {
		n.printf("[CONFIG] Mock mode ENABLED\n")
	}
	n.printf("> ")
}

// Run prints the banner and ticks until ctx is done, sleeping for the loop
// yield after every iteration.
func (n *Node) Run(ctx context.Context) error {
	n.Banner()
	yield := n.cfg.Loop.Yield
	t := time.NewTimer(yield)
	defer t.Stop()
	for {
		n.Tick(ctx, n.now())

		t.Reset(yield)
		select {
		case <-ctx.Done():
			applog.Infof("[NODE] Stopping, %d commands left in queue", n.queue.Len())
			return ctx.Err()
		case <-t.C:
		}
	}
}
