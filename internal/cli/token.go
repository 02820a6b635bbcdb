package cli

import (
	"context"
	"errors"
)

var errTokenUsage = errors.New("usage: token set | token clear")

// Token manages the local override of the contents API token.
func (a *App) Token(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println(errTokenUsage.Error())
		return errTokenUsage
	}
	if !a.isLoggedIn() {
		a.println("Log in first")
		return errors.New("not logged in")
	}

	switch args[0] {
	case "set":
		token, err := getSecret(a.out, "Enter token")
		if err != nil {
			return err
		}
		if err := a.svc.SetToken(ctx, token); err != nil {
			return a.fail(err)
		}
		a.println("Token stored")
	case "clear":
		if err := a.svc.ClearToken(ctx); err != nil {
			return a.fail(err)
		}
		a.println("Token override removed")
	default:
		a.println(errTokenUsage.Error())
		return errTokenUsage
	}
	// The backend is rebuilt with the new credential on next use.
	a.backend = nil
	return nil
}
