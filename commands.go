package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/models"
	"github.com/SigNoz/storefront-client/internal/services"
)

func usage() {
	fmt.Fprint(os.Stderr, `usage: storefront <command> [flags]

commands:
  login -u USER -p PASSWORD      sign in and remember the session
  register -u USER -e EMAIL -p PASSWORD [-first NAME] [-last NAME]
  logout                         forget the session
  whoami                         show the remembered user
  products [-search Q] [-brand B] [-category ID] [-page N]
  product ID                     show one product
  search QUERY                   free-text product search
  categories                     list categories
  recommend [-n N]               recommended products
  buy -product ID [-qty N] -street S -city C -zip Z -country C [-pay METHOD]
  orders [-status S] [-page N]   list your orders
  order ID                       show one order
  cancel-order ID                cancel a pending order
  chat                           talk to the shopping assistant
  chat-sessions                  list past conversations
  serve-fake [ADDR]              run an in-memory storefront API (default :5000)
`)
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	if err := a.session.Restore(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("could not restore session")
	}
	events, unsubscribe := a.session.Subscribe()
	defer unsubscribe()
	go func() {
		for ev := range events {
			if ev.Type == services.EventInvalidated {
				fmt.Fprintln(os.Stderr, "Your session has expired. Please sign in again with `storefront login`.")
			}
		}
	}()

	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "products":
		return a.listProducts(ctx, args)
	case "product":
		return a.showProduct(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "categories":
		return a.categories(ctx)
	case "recommend":
		return a.recommend(ctx, args)
	case "buy":
		return a.buy(ctx, args)
	case "orders":
		return a.listOrders(ctx, args)
	case "order":
		return a.showOrder(ctx, args)
	case "cancel-order":
		return a.cancelOrder(ctx, args)
	case "chat":
		return a.chatLoop(ctx, os.Stdin, os.Stdout)
	case "chat-sessions":
		return a.chatSessions(ctx)
	case "help", "-h", "--help":
		usage()
		return nil
	}
	usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *pass == "" {
		return errors.New("login needs -u and -p")
	}
	if err := a.session.Login(ctx, *user, *pass); err != nil {
		return errors.New(a.session.Err())
	}
	fmt.Printf("Signed in as %s.\n", *user)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req models.RegisterRequest
	fs.StringVar(&req.Username, "u", "", "username")
	fs.StringVar(&req.Email, "e", "", "email")
	fs.StringVar(&req.Password, "p", "", "password")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session.Register(ctx, req); err != nil {
		return errors.New(a.session.Err())
	}
	fmt.Printf("Welcome, %s!\n", req.Username)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	// whoami reports the verified state rather than the optimistic one
	if err := a.session.WaitVerified(ctx); err != nil {
		return err
	}
	s := a.session.Session()
	if !s.Authenticated {
		fmt.Println("Not signed in.")
		return nil
	}
	fmt.Printf("%s <%s> %s %s\n", s.User.Username, s.User.Email, s.User.FirstName, s.User.LastName)
	if exp, ok := a.session.TokenExpiry(); ok {
		fmt.Printf("session expires %s (in %s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Minute))
	}
	return nil
}

func (a *app) listProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	var f models.ProductFilters
	fs.StringVar(&f.Search, "search", "", "search text")
	fs.StringVar(&f.Brand, "brand", "", "brand")
	fs.Int64Var(&f.CategoryID, "category", 0, "category id")
	fs.IntVar(&f.Page, "page", 1, "page")
	fs.IntVar(&f.PerPage, "per-page", 20, "page size")
	fs.StringVar(&f.SortBy, "sort", "", "name|price|rating|created_at")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.products.List(ctx, f)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load products"))
	}
	printProducts(os.Stdout, resp.Products)
	p := resp.Pagination
	fmt.Printf("page %d of %d (%d products)\n", p.Page, max(p.Pages, 1), p.Total)
	return nil
}

func (a *app) showProduct(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	p, err := a.products.Get(ctx, id)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load product"))
	}
	fmt.Printf("%s (%s)\n%s\n$%.2f  rating %.1f (%d reviews)  %d in stock\n",
		p.Name, p.Brand, p.Description, p.Price, p.Rating, p.ReviewCount, p.StockQuantity)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	found, err := a.products.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return errors.New(api.Message(err, "Search failed"))
	}
	printProducts(os.Stdout, found)
	return nil
}

func (a *app) categories(ctx context.Context) error {
	cats, err := a.products.Categories(ctx)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load categories"))
	}
	for _, c := range cats {
		fmt.Printf("%3d  %s  %s\n", c.ID, c.Name, c.Description)
	}
	return nil
}

func (a *app) recommend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	n := fs.Int("n", 8, "how many")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recs, err := a.products.Recommendations(ctx, *n)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load recommendations"))
	}
	printProducts(os.Stdout, recs)
	return nil
}

func (a *app) buy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ContinueOnError)
	productID := fs.Int64("product", 0, "product id")
	qty := fs.Int("qty", 1, "quantity")
	var req services.CheckoutRequest
	fs.StringVar(&req.ShippingAddress.Name, "name", "", "recipient")
	fs.StringVar(&req.ShippingAddress.Street, "street", "", "street")
	fs.StringVar(&req.ShippingAddress.City, "city", "", "city")
	fs.StringVar(&req.ShippingAddress.PostalCode, "zip", "", "postal code")
	fs.StringVar(&req.ShippingAddress.Country, "country", "", "country")
	fs.StringVar(&req.PaymentMethod, "pay", "card", "payment method")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return services.ErrNotAuthenticated
	}

	p, err := a.products.Get(ctx, *productID)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load product"))
	}
	if err := a.cart.AddItem(ctx, *p, *qty); err != nil {
		return err
	}
	if got := a.cart.ItemQuantity(p.ID); got < *qty {
		fmt.Printf("Only %d of %s in stock, ordering %d.\n", p.StockQuantity, p.Name, got)
	}

	order, err := a.orders.Checkout(ctx, a.cart, req)
	if err != nil {
		return errors.New(api.Message(err, "Failed to create order"))
	}
	fmt.Printf("Order %s placed: $%.2f (%s)\n", order.OrderNumber, order.TotalAmount, order.Status)
	return nil
}

func (a *app) listOrders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	status := fs.String("status", "", "pending|confirmed|shipped|delivered|cancelled")
	page := fs.Int("page", 1, "page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.orders.List(ctx, *page, 10, *status)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load orders"))
	}
	if len(resp.Orders) == 0 {
		fmt.Println("No orders.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tTOTAL\tITEMS\tCREATED")
	for _, o := range resp.Orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t$%.2f\t%d\t%s\n", o.ID, o.OrderNumber, o.Status, o.TotalAmount, len(o.Items), o.CreatedAt)
	}
	return tw.Flush()
}

func (a *app) showOrder(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	o, err := a.orders.Get(ctx, id)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load order"))
	}
	fmt.Printf("Order %s  %s  $%.2f  paid by %s\n", o.OrderNumber, o.Status, o.TotalAmount, o.PaymentMethod)
	for _, item := range o.Items {
		fmt.Printf("  %d x %s @ $%.2f = $%.2f\n", item.Quantity, item.ProductName, item.UnitPrice, item.TotalPrice)
	}
	return nil
}

func (a *app) cancelOrder(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	o, err := a.orders.Cancel(ctx, id)
	if err != nil {
		return errors.New(api.Message(err, "Failed to cancel order"))
	}
	fmt.Printf("Order %s is now %s.\n", o.OrderNumber, o.Status)
	return nil
}

func (a *app) chatSessions(ctx context.Context) error {
	resp, err := a.chat.ListSessions(ctx, 1, 20)
	if err != nil {
		return errors.New(api.Message(err, "Failed to load chat sessions"))
	}
	for _, s := range resp.Sessions {
		state := "closed"
		if s.IsActive {
			state = "active"
		}
		fmt.Printf("%s  %-6s  updated %s\n", s.SessionToken, state, s.UpdatedAt)
	}
	return nil
}

// chatLoop reads one message per line. Lines starting with "/" are commands.
func (a *app) chatLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	if !a.session.IsAuthenticated() {
		return services.ErrNotAuthenticated
	}

	printed := 0
	flush := func() {
		st := a.chat.State()
		for _, m := range st.Messages[min(printed, len(st.Messages)):] {
			printMessage(out, m)
		}
		printed = len(st.Messages)
		if len(st.Suggestions) > 0 {
			fmt.Fprintln(out, "  suggested:")
			printProducts(out, st.Suggestions)
		}
	}

	_ = a.chat.ResetChat(ctx)
	flush()
	fmt.Fprintln(out, "(commands: /reset, /history TOKEN, /quit)")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/reset":
			if err := a.chat.ResetChat(ctx); err != nil {
				fmt.Fprintln(out, "!", a.chat.State().Err)
				continue
			}
			printed = 0
		case strings.HasPrefix(line, "/history "):
			if err := a.chat.LoadChatHistory(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/history "))); err != nil {
				fmt.Fprintln(out, "!", a.chat.State().Err)
				continue
			}
			printed = 0
		default:
			_ = a.chat.SendMessage(ctx, line)
		}
		flush()
		if !a.session.IsAuthenticated() {
			return services.ErrNotAuthenticated
		}
	}
}

func printMessage(out io.Writer, m models.ChatMessage) {
	who := "assistant"
	if m.MessageType == models.MessageTypeUser {
		who = "you"
	}
	fmt.Fprintf(out, "%s: %s\n", who, m.Content)
	if m.Metadata != nil && len(m.Metadata.QuickReplies) > 0 {
		fmt.Fprintf(out, "  try: %s\n", strings.Join(m.Metadata.QuickReplies, " | "))
	}
}

func printProducts(out io.Writer, products []models.Product) {
	if len(products) == 0 {
		fmt.Fprintln(out, "No products found.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t$%.2f\t%d in stock\n", p.ID, p.Name, p.Brand, p.Price, p.StockQuantity)
	}
	tw.Flush()
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one numeric id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}
