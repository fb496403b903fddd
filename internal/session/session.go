// Package session runs the interactive point-of-sale loop on a terminal.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/drinkpos/internal/analytics"
	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/checkout"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/pricing"
	"github.com/noah-isme/drinkpos/internal/receipt"
	"github.com/noah-isme/drinkpos/internal/register"
)

// errQuit ends the loop when input runs out mid-prompt.
var errQuit = errors.New("input closed")

// Session reads choices from In and writes to Out. ReceiptTarget names where saved
// receipts go, for the confirmation message.
type Session struct {
	Svc           *register.Service
	In            io.Reader
	Out           io.Writer
	ReceiptTarget string

	lines <-chan string
}

// Run shows the main menu until the user quits, input ends or ctx is canceled. A canceled
// ctx interrupts a pending prompt and returns ctx.Err(); an order being built is dropped.
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	s.lines = readLines(s.In, done)

	err := s.loop(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// readLines feeds In line by line until EOF or done. A final line without a newline
// still counts.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		r := bufio.NewReader(in)
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				select {
				case out <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

func (s *Session) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.welcome()
		choice, err := s.ask(ctx, "Choose: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			s.showAll()
		case "2":
			category, err := s.ask(ctx, "Enter a drink type (e.g., Coffee, Tea, Refresher, Frappuccino, Seasonal): ")
			if err != nil {
				return err
			}
			s.search(category)
		case "3":
			if err := s.placeOrder(ctx); err != nil {
				return err
			}
		case "4":
			s.printSummary()
		case "5":
			s.println("Thank you for your order!")
			return nil
		default:
			s.println("Invalid option.")
		}
	}
}

func (s *Session) welcome() {
	s.println("")
	s.println("Welcome to Drinkpos!")
	s.println("1) Show all available drinks")
	s.println("2) Search drinks by type")
	s.println("3) Place an order")
	s.println("4) View today's sales summary")
	s.println("5) Quit")
}

func (s *Session) showAll() {
	drinks, _ := s.Svc.Menu("")
	if len(drinks) == 0 {
		s.println("(Menu is empty)")
		return
	}
	s.println("\n=== All Available Drinks ===")
	for i, d := range drinks {
		s.printf("%2d) %-28s | %-6s | $%6s | Type: %s\n", i+1, d.Name(), d.Size(), d.Price().StringFixed(2), d.Category())
	}
}

func (s *Session) search(category string) {
	if category == "" {
		s.println("(No type entered)")
		return
	}
	s.printf("\n=== Results for type: %s ===\n", category)
	drinks, err := s.Svc.Menu(category)
	if err == nil {
		for _, d := range drinks {
			s.printf("- %-28s | %-6s | $%6s\n", d.Name(), d.Size(), d.Price().StringFixed(2))
		}
	}
	if len(drinks) == 0 {
		s.println("(No drinks found for that type)")
		names := make([]string, 0, len(menu.Categories()))
		for _, c := range menu.Categories() {
			names = append(names, string(c))
		}
		s.println("Try one of: " + strings.Join(names, ", "))
	}
}

func (s *Session) placeOrder(ctx context.Context) error {
	if s.Svc.Catalog().Len() == 0 {
		s.println("Menu is empty. Load menu first.")
		return nil
	}
	id := s.Svc.OpenCart()
	defer func() { _ = s.Svc.CloseCart(id) }()

	for more := true; more; {
		name, err := s.ask(ctx, "Drink name (as shown): ")
		if err != nil {
			return err
		}
		size, err := s.ask(ctx, "Size (Tall, Grande, Venti): ")
		if err != nil {
			return err
		}
		if _, err := s.Svc.Catalog().Find(name, size); err != nil {
			s.println("Not found. Tip: use option 1 to list the exact names and sizes.")
		} else if err := s.addLine(ctx, id, name, size); err != nil {
			return err
		}
		answer, err := s.ask(ctx, "Add another item? (Y/N): ")
		if err != nil {
			return err
		}
		more = strings.EqualFold(answer, "y")
	}
	return s.checkout(ctx, id)
}

func (s *Session) addLine(ctx context.Context, id uuid.UUID, name, size string) error {
	qty, err := s.askInt(ctx, "Quantity: ", 1, register.MaxQuantity)
	if err != nil {
		return err
	}
	vanilla, err := s.askInt(ctx, fmt.Sprintf("How many shots of vanilla syrup? (each %s): ", pricing.Format(cart.AddonVanilla.Price())), 0, register.MaxShots)
	if err != nil {
		return err
	}
	espresso, err := s.askInt(ctx, fmt.Sprintf("How many extra espresso shots? (each %s): ", pricing.Format(cart.AddonEspresso.Price())), 0, register.MaxShots)
	if err != nil {
		return err
	}
	idx, cv, err := s.Svc.AddItem(id, register.ItemInput{
		Name:          name,
		Size:          size,
		Quantity:      qty,
		VanillaShots:  vanilla,
		EspressoShots: espresso,
	})
	if err != nil {
		s.printf("Could not add item: %v\n", err)
		return nil
	}
	l := cv.Lines[idx]
	s.printf("Added: %s - %s [%s]\n", l.DisplayName(), pricing.Format(l.Drink().Price()), l.AddonsLabel())
	return nil
}

func (s *Session) checkout(ctx context.Context, id uuid.UUID) error {
	o, err := s.Svc.Checkout(ctx, id)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		s.println("(Cart was empty; nothing to checkout.)")
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		s.printf("Checkout failed: %v\n", err)
		return nil
	}
	s.println("")
	s.printf("%s", receipt.Render(o))

	answer, err := s.ask(ctx, "Save receipt? (Y/N): ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		return nil
	}
	if err := s.Svc.SaveReceipt(ctx, o); err != nil {
		s.printf("Error writing receipt: %v\n", err)
		return nil
	}
	s.println("Receipt saved to " + s.ReceiptTarget)
	return nil
}

func (s *Session) printSummary() {
	sum := s.Svc.Summary()
	s.println("\n=== Today's Sales Summary ===")
	s.printf("Orders: %d\n", sum.Orders)
	s.printf("Total Sales: %s\n", pricing.Format(sum.TotalRevenue))
	if sum.MostPopular == nil {
		s.println("No drinks sold yet.")
		return
	}
	s.printf("Total Drinks Sold: %d\n", sum.TotalDrinksSold)
	s.printf("Discounts Given: %s across %d orders\n", pricing.Format(sum.TotalDiscount), sum.DiscountedOrders)
	s.printf("Most Popular Drink: %s (%d sold)\n", sum.MostPopular.Key, sum.MostPopular.Count)
	if len(sum.TopAddons) > 0 {
		s.println("Top Add-ons: " + joinAddons(sum.TopAddons))
	}
	s.printf("Add-on Revenue: %s\n", pricing.Format(sum.TotalAddonRevenue))
	for _, c := range sum.Categories {
		s.printf("  %-12s %3d sold  %s\n", c.Category, c.Count, pricing.Format(c.Revenue))
	}
	if len(sum.Unsold) > 0 {
		keys := make([]string, 0, len(sum.Unsold))
		for _, k := range sum.Unsold {
			keys = append(keys, k.String())
		}
		s.println("Drinks not sold yet: " + strings.Join(keys, ", "))
	}
}

func joinAddons(top []analytics.AddonCount) string {
	parts := make([]string, 0, len(top))
	for _, a := range top {
		parts = append(parts, fmt.Sprintf("%s (%d)", a.Addon, a.Count))
	}
	return strings.Join(parts, ", ")
}

// ask prints prompt and returns the trimmed reply. Exhausted input returns errQuit and a
// canceled ctx returns ctx.Err().
func (s *Session) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.printf("%s", prompt)
	select {
	case <-ctx.Done():
		s.println("")
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", errQuit
		}
		return strings.TrimSpace(line), nil
	}
}

// askInt re-prompts until the reply is an integer within [min, max].
func (s *Session) askInt(ctx context.Context, prompt string, min, max int) (int, error) {
	for {
		reply, err := s.ask(ctx, prompt)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(reply)
		switch {
		case err != nil:
			s.println("Please enter a valid integer.")
		case v < min && min == 0:
			s.println("Please enter 0 or a positive integer.")
		case v < min:
			s.printf("Please enter an integer of at least %d.\n", min)
		case v > max:
			s.printf("Please enter an integer no greater than %d.\n", max)
		default:
			return v, nil
		}
	}
}

func (s *Session) println(line string) { fmt.Fprintln(s.Out, line) }

func (s *Session) printf(format string, args ...any) { fmt.Fprintf(s.Out, format, args...) }
