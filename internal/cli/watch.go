package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/me/authkit/pkg/model"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Hold the session open until it expires",
		Long: "Restore the stored session and print every session change. The command\n" +
			"returns when the token expires and the session is logged out, or on interrupt.",
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, err := a.mgr.RestoreSession(ctx)
			if err != nil {
				return err
			}
			if sess == nil {
				return errors.New("not logged in")
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			loggedOut := make(chan struct{})
			var once sync.Once

			unsubscribe := a.mgr.Sessions().Subscribe(func(s *model.Session) {
				mu.Lock()
				defer mu.Unlock()
				if s == nil {
					fmt.Fprintln(out, "Session ended; logged out.")
					once.Do(func() { close(loggedOut) })
					return
				}
				fmt.Fprintf(out, "Session: %s\n", describeSession(s))
			})
			defer unsubscribe()

			select {
			case <-loggedOut:
			case <-ctx.Done():
				mu.Lock()
				fmt.Fprintln(out, "Interrupted; session kept.")
				mu.Unlock()
			}
			return nil
		}),
	}
}
