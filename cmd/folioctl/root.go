package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/adapters/apiclient"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/editor"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type options struct {
	baseURL   string
	token     string
	atomic    bool
	reconcile bool
	verbose   bool
	timeout   time.Duration
	out       io.Writer
}

func (o *options) client() *apiclient.Client {
	opts := []apiclient.Option{}
	if o.verbose {
		opts = append(opts, apiclient.WithLogger(logger.NewZapLogger("development")))
	}
	return apiclient.New(o.baseURL, o.token, opts...)
}

func (o *options) collectionOptions() []apiclient.CollectionOption {
	if o.atomic {
		return []apiclient.CollectionOption{apiclient.WithAtomicReorder()}
	}
	return nil
}

func (o *options) editorOptions() []editor.Option {
	opts := []editor.Option{}
	if o.reconcile {
		opts = append(opts, editor.WithPolicy(editor.PolicyReconcile))
	}
	if o.verbose {
		opts = append(opts, editor.WithLogger(logger.NewZapLogger("development")))
	}
	return opts
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := &options{out: out}

	root := &cobra.Command{
		Use:           "folioctl",
		Short:         "Edit your folio profile from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	baseURL := os.Getenv("FOLIO_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&o.baseURL, "url", baseURL, "API base URL (or set FOLIO_URL)")
	root.PersistentFlags().StringVar(&o.token, "token", os.Getenv("FOLIO_TOKEN"), "Session token (or set FOLIO_TOKEN)")
	root.PersistentFlags().BoolVar(&o.atomic, "atomic", false, "Persist reorders in one transaction")
	root.PersistentFlags().BoolVar(&o.reconcile, "reconcile", false, "Refetch the collection after a failed change")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 30*time.Second, "Operation timeout")

	root.AddCommand(
		loginCmd(o),
		profileCmd(o),
		publicCmd(o),
		projectsCmd(o),
		experiencesCmd(o),
		imagesCmd(o),
	)
	return root
}

func loginCmd(o *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()

			c := o.client()
			if err := c.Login(ctx, email, password); err != nil {
				return err
			}
			fmt.Fprintln(o.out, c.Token())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// kind holds what differs between the collection subcommands.
type kind[T collection.Item[T]] struct {
	use    string
	short  string
	remote func(o *options) editor.Remote[T]
	format func(T) string
}

func loadEditor[T collection.Item[T]](ctx context.Context, o *options, k kind[T]) (*editor.Editor[T], error) {
	ed := editor.New[T](k.remote(o), o.editorOptions()...)
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}
	return ed, nil
}

func findItem[T collection.Item[T]](ed *editor.Editor[T], raw string) (T, error) {
	var zero T
	id, err := uuid.Parse(raw)
	if err != nil {
		return zero, apperror.NewInvalidInput("invalid id: "+raw, err)
	}
	for _, it := range ed.Items() {
		if it.ItemID() == id {
			return it, nil
		}
	}
	return zero, apperror.NewNotFound("item", raw)
}

func printItems[T collection.Item[T]](out io.Writer, k kind[T], items []T) {
	if len(items) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	for i, it := range items {
		fmt.Fprintf(out, "%2d  %s  %s\n", i, it.ItemID(), k.format(it))
	}
}

// collectionCmd builds list, delete and move for k. extra carries the
// kind-specific add and edit commands.
func collectionCmd[T collection.Item[T]](o *options, k kind[T], extra ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{Use: k.use, Short: k.short}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List items in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, k)
			if err != nil {
				return err
			}
			printItems(o.out, k, ed.Items())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, k)
			if err != nil {
				return err
			}
			item, err := findItem(ed, args[0])
			if err != nil {
				return err
			}
			if err := ed.Delete(ctx, item.ItemID()); err != nil {
				return err
			}
			fmt.Fprintln(o.out, "deleted", item.ItemID())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move the item at position from to position to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var from, to int
			if _, err := fmt.Sscan(args[0], &from); err != nil {
				return apperror.NewInvalidInput("from must be a number", err)
			}
			if _, err := fmt.Sscan(args[1], &to); err != nil {
				return apperror.NewInvalidInput("to must be a number", err)
			}

			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, k)
			if err != nil {
				return err
			}
			err = ed.Move(ctx, from, to)
			printItems(o.out, k, ed.Items())
			if failed := ed.FailedOrder(); len(failed) > 0 {
				for _, id := range failed {
					fmt.Fprintln(o.out, "position not saved:", id)
				}
			}
			return err
		},
	})

	cmd.AddCommand(extra...)
	return cmd
}
