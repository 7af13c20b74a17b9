// Package cli implements the terminal client: a REPL menu over the
// server's routes plus the peer-message listener started at login.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"auboutique/internal/client/client"
	"auboutique/internal/client/config"
	"auboutique/internal/logging"
)

type App struct {
	config *config.Config
	api    *client.Client
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer

	userID     int64
	username   string
	peerCancel context.CancelFunc
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	return &App{
		config: c,
		api:    client.New(c.ServerAddr, c.RequestTimeout),
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.userID != 0
}

func (a *App) showLogin() string {
	if a.username == "" {
		return "(guest)"
	}
	return a.username
}

// Run is the REPL loop. It returns when the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()
	defer a.stopPeerListener()

	fmt.Fprintln(a.out, "AUBoutique CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "auboutique %s > ", a.showLogin())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			a.printHelp()
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "products":
			err = a.ListProducts(ctx)
		case "search":
			err = a.SearchProducts(ctx)
		case "seller":
			err = a.SellerProducts(ctx)
		case "add":
			err = a.AddProduct(ctx)
		case "buy":
			err = a.BuyProduct(ctx)
		case "rate":
			err = a.RateProduct(ctx)
		case "rating":
			err = a.AverageRating(ctx)
		case "online":
			err = a.OnlineUsers(ctx)
		case "msg":
			err = a.SendPeerMessage(ctx)
		case "inbox":
			err = a.Inbox(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(a.out, "Error:", err)
		}
	}
}

func (a *App) printHelp() {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Available commands: products, search, seller, add, buy, rate, rating, online, msg, inbox, logout, exit")
	} else {
		fmt.Fprintln(a.out, "Available commands: register, login, products, search, rating, exit")
	}
}

// requireLogin guards owner-scoped commands.
func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return fmt.Errorf("please log in first")
	}
	return nil
}

func (a *App) stopPeerListener() {
	if a.peerCancel != nil {
		a.peerCancel()
		a.peerCancel = nil
	}
}
