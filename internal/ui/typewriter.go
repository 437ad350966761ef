package ui

import (
	"fmt"
	"io"
	"time"
)

const typewriterDelay = 35 * time.Millisecond

// Typewriter reveals text rune by rune for the story presentation moment.
func Typewriter(w io.Writer, text string) {
	for _, r := range text {
		fmt.Fprintf(w, "%c", r)
		time.Sleep(typewriterDelay)
	}
	fmt.Fprintln(w)
}
