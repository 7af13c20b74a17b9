package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auboutique/internal/client/peer"
	"auboutique/internal/common"
)

func (a *App) OnlineUsers(ctx context.Context) error {
	names, err := a.api.OnlineUsers(ctx)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Fprintln(a.out, "Nobody is online")
		return nil
	}
	fmt.Fprintln(a.out, "Online:", strings.Join(names, ", "))
	return nil
}

// SendPeerMessage delivers a message directly to the receiver's listener.
// If the receiver is offline, or the direct delivery fails, the user is
// offered the server-side stored-message fallback; it never happens
// silently, so a message is either handed off once or stored once.
func (a *App) SendPeerMessage(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	receiver, err := getSimpleText(a.reader, "Send to (username)", a.out)
	if err != nil {
		return err
	}
	text, err := getSimpleText(a.reader, "Message", a.out)
	if err != nil {
		return err
	}

	ip, port, err := a.api.ConnectionInfo(ctx, receiver)
	if err != nil {
		if errors.Is(err, common.ErrUserOffline) {
			fmt.Fprintf(a.out, "%s is offline.\n", receiver)
			return a.offerStoredFallback(ctx, receiver, text)
		}
		return err
	}

	err = peer.Send(ctx, ip, port, peer.Message{From: a.username, Message: text}, a.config.RequestTimeout)
	if err != nil {
		if errors.Is(err, common.ErrDeliveryFailed) {
			fmt.Fprintf(a.out, "Could not reach %s directly.\n", receiver)
			return a.offerStoredFallback(ctx, receiver, text)
		}
		return err
	}

	fmt.Fprintln(a.out, "Delivered")
	return nil
}

func (a *App) offerStoredFallback(ctx context.Context, receiver, text string) error {
	answer, err := getSimpleText(a.reader, "Store the message on the server for later pickup? (y/n)", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		fmt.Fprintln(a.out, "Message discarded")
		return nil
	}

	msg, err := a.api.SendMessage(ctx, a.userID, receiver, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Inbox drains the stored-message queue.
func (a *App) Inbox(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	inbox, err := a.api.Messages(ctx, a.userID)
	if err != nil {
		return err
	}

	if len(inbox) == 0 {
		fmt.Fprintln(a.out, "No stored messages")
		return nil
	}
	for _, m := range inbox {
		fmt.Fprintf(a.out, "[%s] %s: %s\n", m.SentAt.Local().Format("2006-01-02 15:04"), m.From, m.Body)
	}
	return nil
}
