// library-console — терминальный клиент многофилиальной библиотечной сети:
// сводка, каталог с займом, статусы филиалов, займы читателя.
//
// Вся правда о данных живёт на центральном сервисе; консоль выполняет
// одноразовые чтения и записи и хранит локально только сессию читателя.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/go-library-console/internal/client"
	"github.com/pribylovaa/go-library-console/internal/config"
	"github.com/pribylovaa/go-library-console/internal/health"
	"github.com/pribylovaa/go-library-console/internal/pkg/log"
	"github.com/pribylovaa/go-library-console/internal/session"
	"github.com/pribylovaa/go-library-console/internal/views"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Терминальное сообщение вью уже напечатала; сюда попадает только
		// машинная причина для диагностики.
		slog.Debug("command_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

// app — зависимости команд, собираются один раз в PersistentPreRunE.
type app struct {
	cfg    *config.Config
	store  session.Store
	api    *client.Client
	prober *health.Prober
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		a          app
	)

	root := &cobra.Command{
		Use:   "library-console",
		Short: "Console client for the multi-branch library network",
		Long: "Console client for the multi-branch library network: dashboard, " +
			"catalog search and borrowing, branch statuses and reader loans.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := log.Setup(cfg.Env)
			slog.SetDefault(logger)
			cmd.SetContext(log.Into(cmd.Context(), logger))

			store, err := session.New(cfg.Session)
			if err != nil {
				return fmt.Errorf("init session store: %w", err)
			}

			a = app{
				cfg:    cfg,
				store:  store,
				api:    client.New(cfg.Central),
				prober: health.New(cfg.Health),
			}

			return nil
		},
		// Без подкоманды консоль открывается на сводке.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return views.NewDashboard(a.api, a.store, cmd.OutOrStdout()).Render(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(
		newLoginCmd(&a),
		newLogoutCmd(&a),
		newDashboardCmd(&a),
		newCatalogCmd(&a),
		newBranchesCmd(&a),
		newLoansCmd(&a),
	)

	return root
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <library-id>",
		Short: "Sign in with a library ID and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return views.NewLogin(a.api, a.store, cmd.OutOrStdout()).Run(cmd.Context(), args[0])
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Clear(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Could not clear the stored session.")
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Network summary: branch and title counts, branch preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return views.NewDashboard(a.api, a.store, cmd.OutOrStdout()).Render(cmd.Context())
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [query]",
		Short: "Browse the global catalog and borrow books interactively",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := views.NewCatalog(a.api, a.store, cmd.OutOrStdout())
			return catalog.Run(cmd.Context(), cmd.InOrStdin(), strings.Join(args, " "))
		},
	}
}

func newBranchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "Branch directory with live health statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return views.NewBranches(a.api, a.prober, cmd.OutOrStdout()).Render(cmd.Context())
		},
	}
}

func newLoansCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "loans [library-id]",
		Short: "Loans of the signed-in reader (or an explicit library ID)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := ""
			if len(args) == 1 {
				userID = args[0]
			}

			return views.NewLoans(a.api, a.store, cmd.OutOrStdout()).Render(cmd.Context(), userID)
		},
	}
}
