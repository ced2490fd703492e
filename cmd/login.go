package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account",
	RunE:  runSignup,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session locally",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently signed-in user",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runSignup(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := rt.guard.SignUp(ctx, email, password)
	if err != nil {
		return err
	}

	if sess.AccessToken == "" {
		fmt.Println("Signup successful! Please check your email to confirm your account, then run `docsage login`.")
	} else {
		fmt.Println("Signup successful! Run `docsage login` to sign in.")
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := rt.guard.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Printf("Login successful! Signed in as %s\n", user.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	if err := rt.guard.SignOut(context.Background()); err != nil {
		return err
	}

	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	ctx := context.Background()
	token, err := rt.guard.Token(ctx)
	if err != nil {
		return err
	}

	// Confirm the session against the provider rather than trusting the
	// local file alone.
	user, err := rt.identity.User(ctx, token)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", user.Email, user.ID)
	return nil
}

// promptCredentials reads an email and a hidden password from the terminal.
func promptCredentials() (email, password string, err error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err = reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading email: %w", err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", fmt.Errorf("email is required")
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	password = string(raw)
	if password == "" {
		return "", "", fmt.Errorf("password is required")
	}

	return email, password, nil
}
