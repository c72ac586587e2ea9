package shell

import (
	"context"
	"strings"
)

func (s *Shell) handleSignIn(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return s.usageErr("signin")
	}
	user, err := s.deps.Session.SignIn(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	s.printf("Welcome back, %s!\n", displayName(user.DisplayName, user.Email))
	return nil
}

func (s *Shell) handleSignUp(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return s.usageErr("signup")
	}
	user, err := s.deps.Session.SignUp(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	s.printf("Welcome to Toria, %s!\n", displayName(user.DisplayName, user.Email))
	return nil
}

func (s *Shell) handleSignOut(ctx context.Context, _ []string) error {
	if s.active != nil {
		s.active.Close()
		s.active = nil
	}
	if err := s.deps.Session.SignOut(ctx); err != nil {
		return err
	}
	s.printf("Signed out.\n")
	return nil
}

func (s *Shell) handleWhoAmI(context.Context, []string) error {
	user, ok := s.deps.Session.CurrentUser()
	if !ok {
		s.printf("Not signed in.\n")
		return nil
	}
	s.printf("%s <%s> id=%s\n", displayName(user.DisplayName, user.Email), user.Email, user.ID)
	return nil
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
