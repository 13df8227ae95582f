// Package admin implements the accountd-admin command line: schema
// migrations and account maintenance against the configured database.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/config"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/spf13/cobra"
)

// Accounts is the account maintenance surface the CLI drives.
type Accounts interface {
	Create(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetBlocked(ctx context.Context, ref string, blocked bool) (*models.User, error)
}

// Backend is an opened application: storage plus services.
type Backend interface {
	Migrate(ctx context.Context) error
	Accounts() Accounts
	Close() error
}

// OpenFunc connects a Backend for cfg.
type OpenFunc func(ctx context.Context, cfg *config.Config) (Backend, error)

type cli struct {
	open      OpenFunc
	lookupEnv func(string) (string, bool)

	configPath string
	dsn        string
}

// NewRootCommand builds the command tree. Configuration comes from the
// environment, optionally overlaid by --config and --dsn.
func NewRootCommand(open OpenFunc) *cobra.Command {
	c := &cli{open: open, lookupEnv: os.LookupEnv}

	root := &cobra.Command{
		Use:           "accountd-admin",
		Short:         "Maintenance tasks for the accountd database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to JSON config file")
	root.PersistentFlags().StringVar(&c.dsn, "dsn", "", "PostgreSQL DSN (overrides config and DATABASE_DSN)")

	root.AddCommand(c.migrateCommand(), c.userCommand())
	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	var args []string
	if c.configPath != "" {
		args = append(args, "-c", c.configPath)
	}
	if c.dsn != "" {
		args = append(args, "-d", c.dsn)
	}
	return config.Load(args, c.lookupEnv)
}

// withBackend opens a Backend for the duration of fn.
func (c *cli) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) (err error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := c.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, b.Close())
	}()

	return fn(ctx, b)
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func (c *cli) userCommand() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	user.AddCommand(
		c.userCreateCommand(),
		c.userListCommand(),
		c.userBlockCommand("block", true),
		c.userBlockCommand("unblock", false),
	)
	return user
}

func (c *cli) userCreateCommand() *cobra.Command {
	var (
		in            services.CreateUserInput
		firstName     string
		lastName      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a confirmed account",
		Example: `  accountd-admin user create --email alice@example.com --username alice
  echo "$PASSWORD" | accountd-admin user create --email bob@example.com --username bob --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				pw  []byte
				err error
			)
			if passwordStdin {
				var line string
				line, err = ReadLine(bufio.NewReader(cmd.InOrStdin()))
				pw = []byte(line)
			} else {
				pw, err = GetNewPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			defer common.WipeByteArray(pw)
			in.Password = string(pw)

			if cmd.Flags().Changed("first-name") {
				in.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				in.LastName = &lastName
			}

			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				u, err := b.Accounts().Create(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Username, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Username, "username", "", "account username")
	cmd.Flags().StringVar(&firstName, "first-name", "", "optional first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "optional last name")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin instead of prompting")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (c *cli) userListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				users, err := b.Accounts().List(ctx)
				if err != nil {
					return err
				}
				return writeUsers(cmd.OutOrStdout(), users)
			})
		},
	}
}

func (c *cli) userBlockCommand(verb string, blocked bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id|email|username>",
		Short: verb + " an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				u, err := b.Accounts().SetBlocked(ctx, args[0], blocked)
				if err != nil {
					if errors.Is(err, common.ErrorNotFound) {
						return fmt.Errorf("no account matches %q", args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%sed %s (%s)\n", verb, u.Username, u.ID)
				return nil
			})
		},
	}
}

func writeUsers(w io.Writer, users []*models.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tUSERNAME\tBLOCKED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Username, u.Blocked)
	}
	return tw.Flush()
}
