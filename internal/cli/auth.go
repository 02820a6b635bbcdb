package cli

import (
	"context"
	"errors"

	"github.com/albertomaydayjhondoe/porterias/internal/session"
)

// getSimpleText, getPassword and getSecret are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getSecret     = GetSecret
)

// Login prompts for credentials and opens a session. The shared-secret gate
// only asks for the password.
func (a *App) Login(ctx context.Context) error {
	var c session.Credentials
	if a.svc.IdentityGate() {
		email, err := getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
		c.Email = email
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	c.Password = password

	sess, err := a.svc.Login(ctx, c)
	if err != nil {
		return a.fail(err)
	}
	if a.isLoggedIn() {
		a.svc.Logout(a.sess)
	}
	a.sess, a.backend = sess, nil
	a.println("Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}
	a.svc.Logout(a.sess)
	a.sess, a.backend = session.Session{}, nil
	a.println("Logged out")
	return nil
}

// AddAccount enrolls an operator account. Only an admin session may do so.
func (a *App) AddAccount(ctx context.Context) error {
	if !a.svc.IdentityGate() {
		a.println("Accounts are only available with the identity gate")
		return errors.New("no identity gate")
	}
	if err := a.verify(ctx); err != nil {
		return a.fail(err)
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	admin, err := GetYesNo(a.reader, "Grant admin role?", a.out)
	if err != nil {
		return err
	}

	acc, err := a.svc.Enroll(ctx, session.Credentials{Email: email, Password: password}, admin)
	if err != nil {
		return a.fail(err)
	}
	a.printf("Account %s created for %s\n", acc.ID, acc.Email)
	return nil
}
