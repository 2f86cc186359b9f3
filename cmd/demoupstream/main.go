// Command demoupstream starts a fake Figma API for local development.
// Usage: go run ./cmd/demoupstream [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/figplay/bridge/internal/demoupstream"
)

func main() {
	cfg := demoupstream.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   Figma Bridge - Demo Upstream")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Serves a canned Figma-shaped API so the bridge")
	fmt.Println("can be used without a real Figma token. Any")
	fmt.Println("non-empty X-Figma-Token value is accepted.")
	fmt.Println()
	fmt.Println("Built-in files:")
	fmt.Println("  - DEMO123  Demo Design System (two pages)")
	fmt.Println("  - FLOW42   Onboarding Flow (one page)")
	fmt.Println("  - EMPTY99  Empty File (no pages)")
	fmt.Println()
	fmt.Printf("Start the bridge with FIGMA_BASE_URL=http://localhost:%d/v1\n", cfg.Port)
	fmt.Println()

	server := demoupstream.New(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
