// Package main provides the lounge board CLI: a read-only live view of
// every station.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("lounge-boardcli", "Gaming lounge live board")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()

	// watch command
	watchCmd  = app.Command("watch", "Stream the live board (default)").Default()
	watchTick = watchCmd.Flag("ticks", "Redraw on every tick, not only on changes").Bool()
)

type station struct {
	ID           string `json:"id"`
	TierName     string `json:"tierName"`
	StatusLabel  string `json:"statusLabel"`
	PlayerName   string `json:"playerName"`
	DurationText string `json:"durationText"`
	CostText     string `json:"costText"`
}

type event struct {
	SequenceNo uint64 `json:"sequenceNo"`
	Kind       string `json:"kind"`
	Change     *struct {
		Op        string `json:"op"`
		StationID string `json:"stationId"`
	} `json:"change"`
	Stations []station `json:"stations"`
	Summary  struct {
		EarningsText string `json:"earningsText"`
		Players      int    `json:"players"`
	} `json:"summary"`
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case watchCmd.FullCommand():
		if err := watch(ctx, os.Stdout, *server, *watchTick); err != nil && ctx.Err() == nil {
			fmt.Printf("Stream error: %v\n", err)
			os.Exit(1)
		}
	}
}

func watch(ctx context.Context, w io.Writer, baseURL string, ticks bool) error {
	resp, err := resty.New().
		SetBaseURL(baseURL).
		R().
		SetContext(ctx).
		SetHeader("Accept", "text/event-stream").
		SetDoNotParseResponse(true).
		Get("/api/events")
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return fmt.Errorf("%s", resp.Status())
	}

	fmt.Fprintln(w, "Watching the board. Press Ctrl+C to exit.")
	return readEvents(body, func(name string, ev *event) {
		switch name {
		case "snapshot", "changed":
			printBoard(w, ev)
		case "tick":
			if ticks {
				printBoard(w, ev)
			}
		}
	})
}

// readEvents decodes a text/event-stream body until it ends.
func readEvents(r io.Reader, fn func(name string, ev *event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var name, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name != "" && name != "ping" && data != "" {
				var ev event
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					return fmt.Errorf("bad %s event: %w", name, err)
				}
				fn(name, &ev)
			}
			name, data = "", ""
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	return scanner.Err()
}

func printBoard(w io.Writer, ev *event) {
	header := color.New(color.FgCyan, color.Bold)
	if ev.Change != nil {
		header.Fprintf(w, "\n[%d] %s %s\n", ev.SequenceNo, strings.ToUpper(ev.Change.Op), ev.Change.StationID)
	} else {
		header.Fprintf(w, "\n[%d] %s\n", ev.SequenceNo, strings.ToUpper(ev.Kind))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range ev.Stations {
		player := s.PlayerName
		if player == "" {
			player = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.TierName, label(s.StatusLabel), player, s.DurationText, s.CostText)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Today: %s from %d player(s)\n", ev.Summary.EarningsText, ev.Summary.Players)
}

func label(s string) string {
	switch s {
	case "ACTIVE":
		return color.GreenString(s)
	case "PAUSED":
		return color.YellowString(s)
	case "COMPLETED":
		return color.CyanString(s)
	default:
		return s
	}
}
