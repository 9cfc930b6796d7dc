package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-projects/internal/app"
	"github.com/dropDatabas3/hellojohn-projects/internal/config"
	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
)

type cli struct {
	configPath string
	out        io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{out: os.Stdout}

	root := &cobra.Command{
		Use:           "projectsctl",
		Short:         "CLI de operación para el servicio de proyectos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.Config{Env: "dev", Level: "warn"})
			c.out = cmd.OutOrStdout()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "YAML config (env CONFIG_PATH)")

	root.AddCommand(
		c.migrateCmd(),
		c.createCmd(),
		c.getCmd(),
		c.ownersCmd(),
		c.tokenCmd(),
		c.emailTestCmd(),
	)
	return root
}

func (c *cli) load() (*config.Config, error) {
	if c.configPath == "" {
		return config.Default()
	}
	return config.Load(c.configPath)
}

// withApp arma el container, corre fn y lo cierra.
func (c *cli) withApp(ctx context.Context, fn func(a *app.Container) error) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ─── migrate ───

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL embebidas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.Container) error {
				if err := a.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "migrations applied")
				return nil
			})
		},
	}
}

// ─── create / get ───

func (c *cli) createCmd() *cobra.Command {
	var (
		file   string
		owners []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea un proyecto desde un request JSON (--file, o - para stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readRequest(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(a *app.Container) error {
				view, err := a.Provisioner.Create(cmd.Context(), owners, *req)
				if err != nil {
					return err
				}
				return c.printJSON(view)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Archivo JSON con el CreateProjectRequest")
	cmd.Flags().StringSliceVar(&owners, "owner", nil, "Owner id a vincular (repetible)")
	return cmd
}

func readRequest(stdin io.Reader, file string) (*projects.CreateProjectRequest, error) {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var req projects.CreateProjectRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <project-id>",
		Short: "Muestra la vista plana de un proyecto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.Container) error {
				view, err := a.Provisioner.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printJSON(view)
			})
		},
	}
}

// ─── owners ───

func (c *cli) ownersCmd() *cobra.Command {
	owners := &cobra.Command{Use: "owners", Short: "Owners del proyecto interno"}

	owners.AddCommand(&cobra.Command{
		Use:   "create <owner-id>",
		Short: "Crea un owner en el proyecto interno",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.Container) error {
				err := a.Store.Owners().Create(cmd.Context(), &repository.OwnerUser{
					ID:        args[0],
					ProjectID: repository.InternalProjectID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "owner %s created\n", args[0])
				return nil
			})
		},
	})

	owners.AddCommand(&cobra.Command{
		Use:   "get <owner-id>",
		Short: "Muestra un owner y sus proyectos administrados",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.Container) error {
				u, err := a.Store.Owners().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printJSON(u)
			})
		},
	})
	return owners
}

// ─── token ───

func (c *cli) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <owner-id>",
		Short: "Emite un bearer token de owner firmado con auth.jwt_secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			tok, err := app.NewIssuer(cfg).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Vigencia del token")
	return cmd
}

// ─── email test ───

func (c *cli) emailTestCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "email-test <project-id>",
		Short: "Envía el email de prueba con la config de email del proyecto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.Container) error {
				variant, err := a.Email.SendTest(cmd.Context(), args[0], to)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "sent (%s)\n", variant)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Destinatario")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
