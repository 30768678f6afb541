package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/infrastructure/postgres"
)

var bcryptGenerate = bcrypt.GenerateFromPassword

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.LoginResponse
			err := newAPIClient().do(cmd.Context(), "POST", "/api/v1/auth/login",
				dto.LoginRequest{Email: email, Password: password}, &resp)
			if err != nil {
				return err
			}
			printJSON(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transactions of the logged-in account",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTransactions(cmd, "/api/v1/transactions"+pageQuery(limit, offset))
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	categoryCmd := &cobra.Command{
		Use:   "category <name>",
		Short: "List your transactions in one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTransactions(cmd, "/api/v1/transactions/category/"+url.PathEscape(args[0])+pageQuery(limit, offset))
		},
	}
	categoryCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	categoryCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	var amount, direction, narration, category string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a credit or debit",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			var resp dto.TransactionResponse
			err = newAPIClient().do(cmd.Context(), "POST", "/api/v1/transactions", dto.CreateTransactionRequest{
				Amount:    value,
				Direction: direction,
				Narration: narration,
				Category:  category,
			}, &resp)
			if err != nil {
				return err
			}
			printJSON(resp)
			return nil
		},
	}
	createCmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 125.50")
	createCmd.Flags().StringVar(&direction, "direction", "", "credit or debit")
	createCmd.Flags().StringVar(&narration, "narration", "", "Free-text description")
	createCmd.Flags().StringVar(&category, "category", "", "Category label")
	_ = createCmd.MarkFlagRequired("amount")
	_ = createCmd.MarkFlagRequired("direction")

	cmd.AddCommand(listCmd, categoryCmd, createCmd)
	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations (admin token required)",
	}

	settle := func(use, short string, approve bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <transaction-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var resp dto.TransactionResponse
				err := newAPIClient().do(cmd.Context(), "PATCH",
					"/api/v1/admin/transactions/"+url.PathEscape(args[0])+"/approve",
					dto.ApproveTransactionRequest{Approve: &approve}, &resp)
				if err != nil {
					return err
				}
				fmt.Printf("Transaction %s is now %s\n", resp.ID, resp.Status)
				return nil
			},
		}
	}

	freeze := func(use, short string, frozen bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <account-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var resp dto.AccountResponse
				err := newAPIClient().do(cmd.Context(), "PATCH",
					"/api/v1/admin/users/"+url.PathEscape(args[0])+"/freeze",
					dto.FreezeAccountRequest{Freeze: &frozen}, &resp)
				if err != nil {
					return err
				}
				fmt.Printf("Account %s frozen: %v\n", resp.ID, resp.Frozen)
				return nil
			},
		}
	}

	setBalanceCmd := &cobra.Command{
		Use:   "set-balance <account-id> <balance>",
		Short: "Overwrite an account balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", args[1], err)
			}

			var resp dto.AccountResponse
			err = newAPIClient().do(cmd.Context(), "PATCH",
				"/api/v1/admin/users/"+url.PathEscape(args[0])+"/balance",
				dto.CorrectBalanceRequest{Balance: &balance}, &resp)
			if err != nil {
				return err
			}
			fmt.Printf("Account %s balance: %s\n", resp.ID, resp.Balance)
			return nil
		},
	}

	var limit, offset int
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ListAccountsResponse
			if err := newAPIClient().do(cmd.Context(), "GET", "/api/v1/admin/users"+pageQuery(limit, offset), nil, &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tEMAIL\tBALANCE\tFROZEN")
			for _, a := range resp.Accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", a.ID, a.AccountNumber, truncate(a.Email, 32), a.Balance, a.Frozen)
			}
			return w.Flush()
		},
	}
	usersCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	usersCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	allTxnsCmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions across all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTransactions(cmd, "/api/v1/admin/transactions"+pageQuery(limit, offset))
		},
	}
	allTxnsCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	allTxnsCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(
		settle("approve", "Approve a pending transaction", true),
		settle("decline", "Decline a pending transaction", false),
		freeze("freeze", "Freeze an account", true),
		freeze("unfreeze", "Unfreeze an account", false),
		setBalanceCmd,
		usersCmd,
		allTxnsCmd,
	)
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL (defaults to $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&path, "path", "migrations", "Directory holding migration files")

	requireURL := func() error {
		if databaseURL == "" {
			return errors.New("--database-url or DATABASE_URL is required")
		}
		return nil
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireURL(); err != nil {
					return err
				}
				return postgres.RunMigrations(databaseURL, path, logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireURL(); err != nil {
					return err
				}
				return postgres.RunMigrationsDown(databaseURL, path, logger)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireURL(); err != nil {
					return err
				}
				version, dirty, err := postgres.MigrationVersion(databaseURL, path)
				if err != nil {
					return err
				}
				fmt.Printf("Version: %d (dirty: %v)\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash, e.g. for seeding an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

func printTransactions(cmd *cobra.Command, path string) error {
	var resp dto.ListTransactionsResponse
	if err := newAPIClient().do(cmd.Context(), "GET", path, nil, &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDIRECTION\tAMOUNT\tSTATUS\tCATEGORY\tNARRATION")
	for _, t := range resp.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Direction, t.Amount, t.Status, t.Category, truncate(t.Narration, 40))
	}
	return w.Flush()
}

func pageQuery(limit, offset int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return "?" + q.Encode()
}
