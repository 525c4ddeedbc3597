package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"stockpicker/pkg/picker"
)

const version = "0.3.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: picker-cli [-addr URL] <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version              Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  status               Show picker-server status\n")
		fmt.Fprintf(os.Stderr, "  tools                List available tools\n")
		fmt.Fprintf(os.Stderr, "  call <tool> [json]   Call a tool with JSON arguments\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	addr := flag.String("addr", envOr("PICKER_ADDR", "http://127.0.0.1:8480"), "picker-server base URL")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	client := picker.NewClient(*addr)

	switch args[0] {
	case "version":
		fmt.Printf("picker-cli %s\n", version)

	case "status":
		info, err := client.Info(ctx)
		if err != nil {
			fatalf("status: %v", err)
		}
		fmt.Printf("%s %s\n", info.Name, info.Version)
		fmt.Printf("  uptime:   %s\n", info.Uptime)
		fmt.Printf("  tools:    %d\n", info.Tools)
		fmt.Printf("  requests: %d\n", info.Requests)

	case "tools":
		tools, err := client.ListTools(ctx)
		if err != nil {
			fatalf("tools: %v", err)
		}
		for _, tool := range tools {
			fmt.Printf("%-16s %s\n", tool.Name, tool.Description)
		}

	case "call":
		if len(args) < 2 {
			fatalf("call: tool name required")
		}
		var arguments any
		if len(args) >= 3 {
			if err := json.Unmarshal([]byte(args[2]), &arguments); err != nil {
				fatalf("call: parsing arguments: %v", err)
			}
		}
		data, err := client.CallTool(ctx, args[1], arguments)
		if err != nil {
			fatalf("call %s: %v", args[1], err)
		}
		var pretty any
		if err := json.Unmarshal(data, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
		} else {
			fmt.Println(string(data))
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
