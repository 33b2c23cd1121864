package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/config"
	"github.com/MrWong99/netscout/internal/registry"
	"github.com/MrWong99/netscout/internal/session"
	"github.com/MrWong99/netscout/internal/tools"
	"github.com/MrWong99/netscout/internal/tools/dnsdiag"
	"github.com/MrWong99/netscout/internal/tools/emaildiag"
	"github.com/MrWong99/netscout/internal/tools/extip"
	"github.com/MrWong99/netscout/internal/tools/iplayer"
	"github.com/MrWong99/netscout/internal/tools/ixpdiag"
	"github.com/MrWong99/netscout/internal/tools/linklayer"
	"github.com/MrWong99/netscout/internal/tools/maclookup"
	"github.com/MrWong99/netscout/internal/tools/ntpdiag"
	"github.com/MrWong99/netscout/internal/tools/pentest"
	"github.com/MrWong99/netscout/internal/tools/webdiag"
	"github.com/MrWong99/netscout/internal/tools/whoisdiag"
	"github.com/MrWong99/netscout/pkg/provider/llm"
	"github.com/MrWong99/netscout/pkg/provider/llm/anyllm"
	"github.com/MrWong99/netscout/pkg/provider/llm/openai"
)

// registerAll wires every probe package into the registry. This explicit
// list is the discovery whitelist: only packages named here can contribute
// tools.
func registerAll(reg *registry.Registry) error {
	return reg.Register(concat(
		linklayer.Tools(),
		iplayer.Tools(),
		dnsdiag.Tools(),
		webdiag.Tools(),
		emaildiag.Tools(),
		extip.Tools(),
		ixpdiag.Tools(),
		maclookup.Tools(),
		ntpdiag.Tools(),
		pentest.Tools(),
		whoisdiag.Tools(),
	)...)
}

// concat flattens tool slices.
func concat(batches ...[]tools.Tool) []tools.Tool {
	var out []tools.Tool
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// buildProvider constructs the configured chat backend.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "openai-direct":
		var opts []openai.Option
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
		}
		return openai.New(cfg.LLM.APIKey, cfg.LLM.Model, opts...)
	default:
		return anyllm.New(cfg.LLM.Provider, cfg.LLM.Model)
	}
}

// chatLoop drives the interactive shell: one session, serialized turns,
// quit/exit to leave.
func chatLoop(ctx context.Context, sessions *session.Manager, turnTimeout time.Duration) error {
	sess := sessions.Create()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println(`Type a question, or "quit" to exit.`)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		resp, err := sess.ProcessMessage(ctx, line, false, turnTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("\x1b[91merror: %v\x1b[0m\n", err)
			continue
		}
		for _, use := range resp.ToolsUsed {
			fmt.Printf("\x1b[92m[tool] %s\x1b[0m\n", use.Tool)
		}
		fmt.Printf("\x1b[94m%s\x1b[0m\n", resp.Content)
	}
}

// parseKeyValueArgs turns trailing "key=value" CLI arguments into a tool
// argument map, coercing obvious numbers and booleans.
func parseKeyValueArgs(extra []string) map[string]any {
	args := map[string]any{}
	for _, kv := range extra {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			continue
		}
		switch {
		case value == "true" || value == "false":
			args[key], _ = strconv.ParseBool(value)
		default:
			if n, err := strconv.Atoi(value); err == nil {
				args[key] = n
			} else {
				args[key] = value
			}
		}
	}
	return args
}
