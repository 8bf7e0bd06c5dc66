package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"wedding-seating/internal/registry"
	"wedding-seating/internal/seating"
)

// console is the interactive admin menu started with -console
type console struct {
	scanner   *bufio.Scanner
	out       io.Writer
	registry  *registry.Registry
	directory *seating.Directory
	allocator *seating.Allocator
}

func newConsole(in io.Reader, out io.Writer, reg *registry.Registry, dir *seating.Directory, alloc *seating.Allocator) *console {
	return &console{
		scanner:   bufio.NewScanner(in),
		out:       out,
		registry:  reg,
		directory: dir,
		allocator: alloc,
	}
}

// run reads commands until exit, end of input or ctx is done
func (c *console) run(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Fprintln(c.out, "\nCommands:")
		fmt.Fprintln(c.out, "  1. View all guests")
		fmt.Fprintln(c.out, "  2. View seating chart")
		fmt.Fprintln(c.out, "  3. Find a guest's seat")
		fmt.Fprintln(c.out, "  4. Exit")
		fmt.Fprint(c.out, "\nEnter command (1-4): ")

		if !c.scanner.Scan() {
			return
		}

		switch strings.TrimSpace(c.scanner.Text()) {
		case "1":
			c.viewAllGuests(ctx)
		case "2":
			c.viewSeatingChart(ctx)
		case "3":
			c.findGuestSeat(ctx)
		case "4":
			fmt.Fprintln(c.out, "Exiting...")
			return
		default:
			fmt.Fprintln(c.out, "Invalid command. Please try again.")
		}
	}
}

func (c *console) viewAllGuests(ctx context.Context) {
	guests, err := c.registry.List(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error loading guests: %v\n", err)
		return
	}
	if len(guests) == 0 {
		fmt.Fprintln(c.out, "\nNo guests found.")
		return
	}

	fmt.Fprintf(c.out, "\n📋 All Guests (%d total):\n", len(guests))
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	for _, guest := range guests {
		fmt.Fprintf(c.out, "Name: %s\n", guest.DisplayName())
		fmt.Fprintf(c.out, "Email: %s\n", guest.Email)
		fmt.Fprintf(c.out, "Phone: %s\n", guest.Cellphone)
		fmt.Fprintf(c.out, "Dietary: %s\n", guest.DietaryRequirements)
		if guest.FoodAllergies != "" {
			fmt.Fprintf(c.out, "Allergies: %s\n", guest.FoodAllergies)
		}
		if guest.BringingGuest {
			fmt.Fprintf(c.out, "Plus one: %s\n", guest.GuestList)
		}
		if !guest.SubmittedAt.IsZero() {
			fmt.Fprintf(c.out, "RSVP Date: %s\n", guest.SubmittedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(c.out, strings.Repeat("-", 60))
	}
}

func (c *console) viewSeatingChart(ctx context.Context) {
	chart, err := c.directory.Chart(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error loading seating chart: %v\n", err)
		return
	}

	status := "open"
	if c.allocator.DeadlinePassed() {
		status = "closed"
	}
	fmt.Fprintf(c.out, "\n🪑 Seating chart (%d free seats, selection %s):\n", chart.Free(), status)
	for _, table := range chart.Tables {
		fmt.Fprintln(c.out, strings.Repeat("-", 60))
		fmt.Fprintln(c.out, table.Name)
		for _, seat := range table.Seats {
			occupant := "(empty)"
			if seat.Occupied {
				occupant = seat.Occupant
			}
			fmt.Fprintf(c.out, "  Seat %2d: %s\n", seat.Seat+1, occupant)
		}
	}
}

func (c *console) findGuestSeat(ctx context.Context) {
	fmt.Fprint(c.out, "Enter guest email: ")
	if !c.scanner.Scan() {
		return
	}
	email := strings.TrimSpace(c.scanner.Text())

	seat, err := c.directory.FindGuestSeat(ctx, email)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error: %v\n", err)
		return
	}
	if seat == nil {
		fmt.Fprintf(c.out, "%s has no seat yet.\n", email)
		return
	}
	fmt.Fprintf(c.out, "%s is seated at %s - Seat %d\n", email, seat.TableName, seat.Seat)
}
