package shell

import (
	"context"
	"strconv"
	"strings"
)

func (s *Shell) handleNotify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("notify")
	}
	user, err := s.deps.Session.Require()
	if err != nil {
		return err
	}
	if _, err := s.deps.Backend.RegisterPushToken(ctx, user.ID, args[0]); err != nil {
		return err
	}
	s.printf("Notifications enabled on this device.\n")
	return nil
}

func (s *Shell) handlePrefs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.usageErr("prefs")
	}
	prefs := make(map[string]bool, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return s.usageErr("prefs")
		}
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return s.usageErr("prefs")
		}
		prefs[key] = on
	}

	user, err := s.deps.Session.Require()
	if err != nil {
		return err
	}
	if _, err := s.deps.Backend.UpdateNotificationPreferences(ctx, user.ID, prefs); err != nil {
		return err
	}
	s.printf("Notification preferences updated.\n")
	return nil
}
