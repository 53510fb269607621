// ABOUTME: Account subcommands: login, signup, logout and whoami
// ABOUTME: Saves and clears the session token between runs

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/2389/quickchat/internal/auth"
	"github.com/2389/quickchat/internal/chat"
)

const accountTimeout = 30 * time.Second

// parseCredentials reads --name, --email, --password and --bio. The password
// falls back to $QUICKCHAT_PASSWORD.
func parseCredentials(args []string) chat.Credentials {
	var creds chat.Credentials

	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			break
		}
		switch args[i] {
		case "--name", "-n":
			creds.FullName = args[i+1]
			i++
		case "--email", "-e":
			creds.Email = args[i+1]
			i++
		case "--password", "-p":
			creds.Password = args[i+1]
			i++
		case "--bio", "-b":
			creds.Bio = args[i+1]
			i++
		}
	}

	if creds.Password == "" {
		creds.Password = os.Getenv("QUICKCHAT_PASSWORD")
	}
	return creds
}

func cmdLogin(a *app, args []string) error {
	creds := parseCredentials(args)
	if creds.Email == "" {
		return fmt.Errorf("usage: login --email <email> --password <password>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), accountTimeout)
	defer cancel()

	sess, err := a.api.Login(ctx, creds)
	if err != nil {
		return err
	}
	return saveSession(a, sess.User, sess.Token)
}

func cmdSignup(a *app, args []string) error {
	creds := parseCredentials(args)
	if creds.Email == "" || creds.FullName == "" {
		return fmt.Errorf("usage: signup --name <name> --email <email> --password <password> --bio <bio>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), accountTimeout)
	defer cancel()

	sess, err := a.api.Signup(ctx, creds)
	if err != nil {
		return err
	}
	return saveSession(a, sess.User, sess.Token)
}

func saveSession(a *app, u chat.User, token string) error {
	if err := a.tokens.Save(token); err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Printf("✓ Logged in as %s (%s)\n", u.FullName, u.ID)
	a.logger.Debug("session saved", "path", a.tokens.Path())
	return nil
}

func cmdLogout(a *app) error {
	if err := a.tokens.Delete(); err != nil {
		return err
	}
	color.New(color.FgGreen).Println("✓ Logged out")
	if os.Getenv(auth.TokenEnvVar) != "" {
		color.Yellow("%s is still set in the environment\n", auth.TokenEnvVar)
	}
	return nil
}

func cmdWhoami(a *app) error {
	token, err := loadSession(a)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), accountTimeout)
	defer cancel()

	a.api.SetToken(token)
	u, err := a.api.CheckAuth(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("%s\n", u.FullName)
	fmt.Printf("  id:    %s\n", u.ID)
	if u.Email != "" {
		fmt.Printf("  email: %s\n", u.Email)
	}
	if u.Bio != "" {
		fmt.Printf("  bio:   %s\n", u.Bio)
	}
	return nil
}

// loadSession returns the saved token, rejecting missing or expired ones
// before any request is made.
func loadSession(a *app) (string, error) {
	token, err := a.tokens.Load()
	if errors.Is(err, auth.ErrNoToken) {
		return "", fmt.Errorf("not logged in: run 'quickchat login' first")
	}
	if err != nil {
		return "", err
	}

	if _, err := auth.ParseClaims(token); err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return "", fmt.Errorf("session expired: run 'quickchat login' again")
		}
		return "", err
	}
	return token, nil
}
