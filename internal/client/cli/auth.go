package cli

import (
	"context"
	"fmt"
	"os"

	"auboutique/internal/client/peer"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account fields and attempts to create a new
// account. The password leaves the process only as a SHA-256 digest.
func (a *App) Register(ctx context.Context) error {
	firstName, err := getSimpleText(a.reader, "Enter first name", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Enter last name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	msg, err := a.api.Register(ctx, firstName, lastName, email, username, PasswordDigest(password))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, msg)
	return nil
}

// Login authenticates against the server. The peer listener is bound
// first so its port can be advertised in the login request; on a failed
// login the listener is torn down again.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		return fmt.Errorf("already logged in as %s", a.username)
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	listener, err := peer.Listen(a.config.PeerListenAddr, a.onPeerMessage, a.logger, a.config.RequestTimeout)
	if err != nil {
		return fmt.Errorf("starting peer listener: %w", err)
	}

	listenerCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := listener.Run(listenerCtx); err != nil {
			a.logger.Error(listenerCtx, "peer listener failed", "error", err.Error())
		}
	}()

	userID, err := a.api.Login(ctx, username, PasswordDigest(password), "", listener.Port())
	if err != nil {
		cancel()
		return err
	}

	a.userID = userID
	a.username = username
	a.peerCancel = cancel

	fmt.Fprintf(a.out, "Logged in as %s (listening for messages on port %d)\n", username, listener.Port())
	return nil
}

// Logout releases the session on the server and stops the peer listener.
func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	if err := a.api.Logout(ctx, a.userID); err != nil {
		return err
	}

	a.stopPeerListener()
	a.userID = 0
	a.username = ""

	fmt.Fprintln(a.out, "Logout successful")
	return nil
}

// onPeerMessage runs on a listener goroutine for every delivered peer
// message.
func (a *App) onPeerMessage(m peer.Message) {
	fmt.Fprintf(os.Stdout, "\n[%s] %s\n", m.From, m.Message)
}
