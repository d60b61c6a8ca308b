package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/formcoach/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// formcoach-mcp serves MCP over stdio against a remote formcoach server.
func main() {
	baseURL := flag.String("url", os.Getenv("FORMCOACH_URL"), "formcoach server URL (e.g. http://formcoach.tailnet.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("FORMCOACH_API_KEY"), "API key of the formcoach server")
	user := flag.String("user", mcp.DefaultUserID, "user whose workouts are queried by default")
	flag.Parse()

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *baseURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: formcoach-mcp -url http://host [-api-key KEY] [-user LOGIN]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := mcp.New(mcp.NewHTTPClient(*baseURL, *apiKey), Version, log)
	log.Info("formcoach-mcp starting", "version", Version, "url", *baseURL, "user", *user)

	err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, *user)
	}))
	if err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
