// Package main provides the admin CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("lounge-admincli", "Gaming lounge admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show every station").Default()

	// summary command
	summaryCmd = app.Command("summary", "Show today's summary")

	// prices command
	pricesCmd = app.Command("prices", "Show the price chart")

	// quote command
	quoteCmd         = app.Command("quote", "Price a session without starting it")
	quoteTier        = quoteCmd.Arg("tier", "Tier ID").Required().String()
	quoteMinutes     = quoteCmd.Arg("minutes", "Minutes played").Required().Int()
	quoteControllers = quoteCmd.Flag("controllers", "Controller count").Short('c').Default("1").Int()

	// add command
	addCmd         = app.Command("add", "Start a session")
	addTier        = addCmd.Arg("tier", "Tier ID").Required().String()
	addPlayer      = addCmd.Arg("player", "Player name").Required().String()
	addMinutes     = addCmd.Flag("minutes", "Requested minutes").Short('m').Default("60").Int()
	addControllers = addCmd.Flag("controllers", "Controller count").Short('c').Default("1").Int()
	addPhone       = addCmd.Flag("phone", "Player phone").String()
	addNotes       = addCmd.Flag("notes", "Notes").String()

	// pause command
	pauseCmd     = app.Command("pause", "Pause a station")
	pauseStation = pauseCmd.Arg("station-id", "Station ID (e.g. SYS001)").Required().String()

	// resume command
	resumeCmd     = app.Command("resume", "Resume a station")
	resumeStation = resumeCmd.Arg("station-id", "Station ID").Required().String()

	// end command
	endCmd     = app.Command("end", "End and bill a station")
	endStation = endCmd.Arg("station-id", "Station ID").Required().String()

	// remove command
	removeCmd     = app.Command("remove", "Clear a station back to available").Alias("rm")
	removeStation = removeCmd.Arg("station-id", "Station ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	c := newClient(*server, *token)

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = status(os.Stdout, c)
	case summaryCmd.FullCommand():
		err = summary(os.Stdout, c)
	case pricesCmd.FullCommand():
		err = prices(os.Stdout, c)
	case quoteCmd.FullCommand():
		err = quote(os.Stdout, c, *quoteTier, *quoteMinutes, *quoteControllers)
	default:
		// Admin commands
		if *token == "" {
			fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
			os.Exit(1)
		}
		err = admin(os.Stdout, c, command)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func admin(w io.Writer, c *client, command string) error {
	var (
		res *transitionDTO
		err error
	)
	switch command {
	case addCmd.FullCommand():
		var s *stationDTO
		s, err = c.add(addBody{
			Tier:        *addTier,
			PlayerName:  *addPlayer,
			Phone:       *addPhone,
			Controllers: *addControllers,
			Minutes:     *addMinutes,
			Notes:       *addNotes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Session started on %s (%s) for %s, projected %s\n",
			s.ID, s.TierName, s.PlayerName, s.ProjectedText)
		return nil
	case pauseCmd.FullCommand():
		res, err = c.transition("pause", *pauseStation)
	case resumeCmd.FullCommand():
		res, err = c.transition("resume", *resumeStation)
	case endCmd.FullCommand():
		res, err = c.transition("end", *endStation)
	case removeCmd.FullCommand():
		res, err = c.remove(*removeStation)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}
	printTransition(w, res)
	return nil
}

func printTransition(w io.Writer, res *transitionDTO) {
	s := res.Station
	if !res.Applied {
		fmt.Fprintf(w, "No change: %s is %s\n", s.ID, statusText(s.StatusLabel))
		return
	}
	fmt.Fprintf(w, "%s is now %s (%s, %s)\n", s.ID, statusText(s.StatusLabel), s.DurationText, s.CostText)
}

func status(w io.Writer, c *client) error {
	res, err := c.stations()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATION\tTIER\tSTATUS\tPLAYER\tCTRL\tSTARTED\tTIME\tCOST")
	for _, s := range res.Stations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			s.ID, s.TierName, statusText(s.StatusLabel), dash(s.PlayerName),
			s.Controllers, dash(s.StartedAt), s.DurationText, s.CostText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, a := range res.Availability {
		mark := color.New(color.FgGreen).Sprint("free")
		if !a.Available {
			mark = color.New(color.FgRed).Sprint("full")
		}
		fmt.Fprintf(w, "  %-6s %d/%d %s\n", a.TierID, a.Occupied, a.Units, mark)
	}
	return nil
}

func summary(w io.Writer, c *client) error {
	s, err := c.summary()
	if err != nil {
		return err
	}
	bold := color.New(color.Bold)
	bold.Fprintf(w, "=== %s ===\n", s.DateText)
	fmt.Fprintf(w, "Earnings:   %s\n", s.EarningsText)
	fmt.Fprintf(w, "Players:    %d\n", s.Players)
	fmt.Fprintf(w, "Play time:  %s\n", s.PlayTimeText)
	fmt.Fprintf(w, "Board:      %d active, %d paused, %d available, %d completed\n",
		s.Board.Active, s.Board.Paused, s.Board.Available, s.Board.Completed)
	return nil
}

func prices(w io.Writer, c *client) error {
	tiers, err := c.tiers()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tNAME\t30 MIN\t1 HR\t1.5 HR\t2 HR\tEXTRA CTRL\tMAX")
	for _, t := range tiers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			t.ID, t.DisplayName,
			t.PriceText["30m"], t.PriceText["1h"], t.PriceText["1h30m"], t.PriceText["2h"],
			t.ExtraText, t.MaxControllers)
	}
	return tw.Flush()
}

func quote(w io.Writer, c *client, tierID string, minutes, controllers int) error {
	q, err := c.quote(tierID, minutes, controllers)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s for %d min with %d controller(s): %s\n", q.Tier, q.Minutes, q.Controllers, q.CostText)
	return nil
}

// statusText colors a status label.
func statusText(label string) string {
	switch label {
	case "ACTIVE":
		return color.New(color.FgGreen, color.Bold).Sprint(label)
	case "PAUSED":
		return color.New(color.FgYellow, color.Bold).Sprint(label)
	case "COMPLETED":
		return color.New(color.FgCyan).Sprint(label)
	default:
		return label
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
