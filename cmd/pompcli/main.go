// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pompcli is a small interop utility for exercising a POMP server,
// client or dgram endpoint from the command line: connect or listen on an
// address, optionally send one message built from a printf-style format and
// argv-encoded arguments, and dump whatever comes back.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	pomp "github.com/Parrot-Developers/libpomp-go"
	"github.com/Parrot-Developers/libpomp-go/pomp/conn"
	"github.com/Parrot-Developers/libpomp-go/pomp/ctx"
	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

var (
	serverFlag  = flag.Bool("s", false, "act as a server (listen)")
	clientFlag  = flag.Bool("c", false, "act as a client (connect); default if -s is not given")
	udpFlag     = flag.Bool("u", false, "use a dgram (udp/unix-dgram) endpoint instead of a stream")
	dumpFlag    = flag.Bool("d", false, "dump every received message to stderr")
	timeoutFlag = flag.Int("t", 0, "stop after this many seconds (0: run until interrupted)")
	waitForFlag = flag.Int("w", -1, "wait for a message with this id before exiting, then exit 0")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-s|-c] [-u] [-d] [-t seconds] [-w msgid] <address> [to-address] [msgid] [format] [argv...]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pompcli:", err)
		os.Exit(1)
	}
}

func run() error {
	args := flag.Args()
	if len(args) < 1 {
		usage()
		return fmt.Errorf("missing address")
	}

	addr, err := pomp.ParseAddr(args[0])
	if err != nil {
		return fmt.Errorf("parse address: %w", err)
	}
	args = args[1:]

	var toAddr *pomp.Addr
	if *udpFlag && len(args) > 0 {
		toAddr, err = pomp.ParseAddr(args[0])
		if err != nil {
			return fmt.Errorf("parse to-address: %w", err)
		}
		args = args[1:]
	}

	var msgID uint64
	var format string
	var argv []string
	if len(args) > 0 {
		msgID, err = strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("parse msgid: %w", err)
		}
		args = args[1:]
	}
	if len(args) > 0 {
		format = args[0]
		argv = args[1:]
	}

	l, err := loop.New()
	if err != nil {
		return fmt.Errorf("create loop: %w", err)
	}
	defer l.Destroy()

	var waitMsgSeen = make(chan struct{}, 1)

	hasMsg := format != ""
	sendOnce := func(c *ctx.Context) {
		if !hasMsg {
			return
		}
		hasMsg = false
		msg := pomp.NewMessage()
		if err := msg.Init(uint32(msgID)); err != nil {
			fmt.Fprintln(os.Stderr, "pompcli: init message:", err)
			return
		}
		enc := pomp.NewEncoder()
		if err := enc.Init(msg); err != nil {
			fmt.Fprintln(os.Stderr, "pompcli: init encoder:", err)
			return
		}
		if err := pomp.WriteArgsFromStrings(enc, format, argv); err != nil {
			fmt.Fprintln(os.Stderr, "pompcli: encode args:", err)
			return
		}
		if err := msg.Finish(); err != nil {
			fmt.Fprintln(os.Stderr, "pompcli: finish message:", err)
			return
		}
		if err := c.SendMsg(msg); err != nil {
			fmt.Fprintln(os.Stderr, "pompcli: send:", err)
		}
	}

	eventCb := func(c *ctx.Context, cn *conn.Connection, ev conn.Event, msg *pomp.Message) {
		switch ev {
		case conn.EventConnected:
			if *dumpFlag {
				fmt.Fprintln(os.Stderr, "connected")
			}
			// A stream connection (server accept or client connect) is
			// only ready to send once it has an established peer; a
			// non-blocking client Connect() returns long before that.
			sendOnce(c)
		case conn.EventDisconnected:
			if *dumpFlag {
				fmt.Fprintln(os.Stderr, "disconnected")
			}
		case conn.EventMsg:
			if *dumpFlag {
				if s, err := pomp.Dump(msg); err == nil {
					fmt.Fprintln(os.Stderr, s)
				}
			}
			if *waitForFlag >= 0 && msg.ID() == uint32(*waitForFlag) {
				select {
				case waitMsgSeen <- struct{}{}:
				default:
				}
			}
		}
	}

	var c *ctx.Context
	isServer := *serverFlag
	switch {
	case *udpFlag:
		c = ctx.NewDgram(l, addr, ctx.WithEventCallback(eventCb))
		err = c.Bind()
	case isServer:
		c = ctx.NewServer(l, addr, ctx.WithEventCallback(eventCb))
		err = c.Listen()
	default:
		c = ctx.NewClient(l, addr, ctx.WithEventCallback(eventCb))
		err = c.Connect()
	}
	if err != nil {
		return fmt.Errorf("start endpoint: %w", err)
	}
	defer c.Stop()

	if *udpFlag && hasMsg {
		// A dgram endpoint has no connect handshake to wait for: send
		// as soon as Bind returns, exactly as for the stream cases'
		// EventConnected (handled in sendOnce/eventCb above).
		hasMsg = false
		if toAddr == nil {
			return fmt.Errorf("-u requires a to-address when sending")
		}
		msg := pomp.NewMessage()
		if err := msg.Init(uint32(msgID)); err != nil {
			return fmt.Errorf("init message: %w", err)
		}
		enc := pomp.NewEncoder()
		if err := enc.Init(msg); err != nil {
			return fmt.Errorf("init encoder: %w", err)
		}
		if err := pomp.WriteArgsFromStrings(enc, format, argv); err != nil {
			return fmt.Errorf("encode args: %w", err)
		}
		if err := msg.Finish(); err != nil {
			return fmt.Errorf("finish message: %w", err)
		}
		if err := c.SendMsgTo(msg, toAddr); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	deadline := time.Time{}
	if *timeoutFlag > 0 {
		deadline = time.Now().Add(time.Duration(*timeoutFlag) * time.Second)
	}
	for {
		if *waitForFlag >= 0 {
			select {
			case <-waitMsgSeen:
				return nil
			default:
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil
		}
		if err := l.WaitAndProcess(100 * time.Millisecond); err != nil && err != loop.ErrTimedOut {
			return fmt.Errorf("wait_and_process: %w", err)
		}
	}
}
