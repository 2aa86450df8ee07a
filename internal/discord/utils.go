package discord

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// SetupCloseHandler creates a handler that will catch SIGINT and SIGTERM signals
// and gracefully close the application
func SetupCloseHandler(cleanupFunc func() error) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		err := cleanupFunc()
		if err != nil {
			fmt.Printf("Error during cleanup: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
}

// chunkString splits s into parts of at most chunkSize bytes, preferring
// line breaks and never splitting a rune.
func chunkString(s string, chunkSize int) []string {
	if len(s) <= chunkSize {
		return []string{s}
	}

	var chunks []string
	current := ""
	for _, line := range strings.Split(s, "\n") {
		if current != "" && len(current)+len(line)+1 > chunkSize {
			chunks = append(chunks, current)
			current = ""
		}
		for len(line) > chunkSize {
			cut := chunkSize
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current == "" {
			current = line
		} else {
			current += "\n" + line
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// interactionUser returns the user behind an interaction in a guild or a DM.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
