// Package main is the entrypoint for the message-router.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/message-router/internal/config"
	"github.com/morezero/message-router/internal/server"
	"github.com/morezero/message-router/pkg/commsutil"
	"github.com/morezero/message-router/pkg/dispatch"
)

const usage = `Usage: message-router [command]

Commands:
  serve                 (default) Start the router (COMMS subscriber, HTTP status).
  send <type> [json]    Send one message to the router subject and print the envelope.
  help                  Show this help.

Environment: COMMS_URL, ROUTER_SUBJECT, DISPATCH_TIMEOUT, HTTP_PORT, LOG_LEVEL.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "send":
		if len(args) < 2 || args[1] == "" {
			log.Fatalf("message-router send: require a message type")
		}
		payload := ""
		if len(args) > 2 {
			payload = args[2]
		}
		if err := runSend(args[1], payload); err != nil {
			log.Fatalf("message-router send: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("message-router: %v", err)
	}
}

// runSend publishes one request to the router subject and prints the
// response envelope. Useful as a smoke test against a running router.
func runSend(msgType, payloadJSON string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	subject := cfg.RouterSubject
	if subject == "" {
		subject = commsutil.SubjectRouter
	}

	msg := dispatch.Message{
		Type:          msgType,
		CorrelationID: uuid.NewString(),
	}
	if payloadJSON != "" {
		var payload any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return fmt.Errorf("parse payload: %w", err)
		}
		msg.Payload = payload
	}

	data, err := commsutil.EncodePayload(&msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName+"-cli")
	if err != nil {
		return err
	}
	defer nc.Close()

	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	resp, err := nc.Request(subject, data, timeout)
	if err != nil {
		return fmt.Errorf("request on %s: %w", subject, err)
	}

	var pretty any
	if err := json.Unmarshal(resp.Data, &pretty); err != nil {
		fmt.Println(string(resp.Data))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
