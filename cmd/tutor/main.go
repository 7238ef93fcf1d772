package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"ai-pdf-tutor-be/pkg/tutorclient"

	"github.com/fatih/color"
)

// Terminal tutor client. It streams replies chunk by chunk, re-rendering
// the in-progress answer, and moves a simulated viewer to the cited page
// after every turn.
func main() {
	baseURL := flag.String("url", "http://localhost:3000", "backend base URL")
	token := flag.String("token", "", "JWT access token")
	sessionId := flag.String("session", "", "chat session id")
	pageCount := flag.Int("pages", 0, "document page count for viewer clamping (0 = unknown)")
	timeout := flag.Duration("timeout", 0, "per-turn timeout (0 = default)")
	flag.Parse()

	if *token == "" || *sessionId == "" {
		fmt.Fprintln(os.Stderr, "usage: tutor -token <jwt> -session <uuid> [-url <base>] [-pages <n>]")
		os.Exit(1)
	}

	client := tutorclient.NewClient(*baseURL, *token)
	renderer := tutorclient.NewRenderer()
	viewer := tutorclient.NewViewer(*pageCount)
	runner := tutorclient.NewRunner(renderer, viewer)

	color.Cyan("PDF tutor. Type a question, or /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Set(color.FgYellow)
		fmt.Print("you> ")
		color.Unset()

		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "/quit" || question == "/exit" {
			break
		}

		renderer.BeginTurn(question)

		ctx, cancel := tutorclient.WaitStreamDeadline(context.Background(), *timeout)
		body, err := client.SendMessage(ctx, *sessionId, question)
		if err != nil {
			cancel()
			if err == tutorclient.ErrTurnInFlight {
				color.Red("A reply is still streaming for this session. Wait for it to finish.")
				continue
			}
			color.Red("Request failed: %v", err)
			continue
		}

		fmt.Print("tutor> ")
		result, err := runner.Run(chunkPrinter{body})
		body.Close()
		cancel()
		fmt.Println()

		if err != nil {
			color.Red("Stream interrupted: %v", err)
			continue
		}
		if result.Malformed {
			color.Red("(citation block was malformed; showing raw reply)")
			continue
		}
		if result.Found && !result.Metadata.IsEmpty() {
			color.Green("[viewer] page %d, %d highlighted sentence(s)",
				viewer.CurrentPage(), len(viewer.Highlights()))
		}
	}
}

// chunkPrinter echoes each chunk to stdout as it passes through to the
// runner, so the answer appears while it streams.
type chunkPrinter struct {
	body interface{ Read(p []byte) (int, error) }
}

func (c chunkPrinter) Read(p []byte) (int, error) {
	n, err := c.body.Read(p)
	if n > 0 {
		fmt.Print(string(p[:n]))
	}
	return n, err
}
