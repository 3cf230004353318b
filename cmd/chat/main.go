package main

import (
	"fmt"
	"os"

	"github.com/ram70099/ChatBot/internal/logger"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.L.Error("fatal", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
