package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hubooks/reading-service/internal/database"
	"github.com/hubooks/reading-service/internal/repository"
	"github.com/hubooks/reading-service/internal/service"
)

func newReaderCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "reader", Short: "Manage reader credentials"}
	cmd.AddCommand(newEnrollCommand(opts), newSetPINCommand(opts))
	return cmd
}

type readerFlags struct {
	name        string
	pin         string
	pinStdin    bool
	targetCount int
}

func (f *readerFlags) resolvePIN(in io.Reader) (string, error) {
	if !f.pinStdin {
		return f.pin, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read pin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newEnrollCommand(opts *options) *cobra.Command {
	flags := &readerFlags{}
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Create a reader with a PIN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pin, err := flags.resolvePIN(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withReaderService(cmd.Context(), opts, func(svc *service.ReaderService) error {
				reader, err := svc.Enroll(cmd.Context(), service.EnrollReaderInput{
					Name:        flags.name,
					PIN:         pin,
					TargetCount: flags.targetCount,
				})
				if err != nil {
					printResult(opts.out, false, "reader enroll", nil, err)
					return err
				}
				printResult(opts.out, true, "reader enroll", []string{
					fmt.Sprintf("id=%d name=%s target_count=%d", reader.ID, reader.Name, reader.TargetCount),
				}, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.name, "name", "", "login handle (case-sensitive)")
	cmd.Flags().StringVar(&flags.pin, "pin", "", "4-6 character PIN")
	cmd.Flags().BoolVar(&flags.pinStdin, "pin-stdin", false, "read the PIN from stdin")
	cmd.Flags().IntVar(&flags.targetCount, "target", 0, "reading target count")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsOneRequired("pin", "pin-stdin")
	return cmd
}

func newSetPINCommand(opts *options) *cobra.Command {
	flags := &readerFlags{}
	cmd := &cobra.Command{
		Use:   "set-pin",
		Short: "Replace a reader's PIN with a freshly salted one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pin, err := flags.resolvePIN(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withReaderService(cmd.Context(), opts, func(svc *service.ReaderService) error {
				reader, err := svc.ResetPINByName(cmd.Context(), flags.name, pin)
				if err != nil {
					printResult(opts.out, false, "reader set-pin", nil, err)
					return err
				}
				printResult(opts.out, true, "reader set-pin", []string{fmt.Sprintf("id=%d name=%s", reader.ID, reader.Name)}, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.name, "name", "", "login handle (case-sensitive)")
	cmd.Flags().StringVar(&flags.pin, "pin", "", "4-6 character PIN")
	cmd.Flags().BoolVar(&flags.pinStdin, "pin-stdin", false, "read the PIN from stdin")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsOneRequired("pin", "pin-stdin")
	return cmd
}

func withReaderService(ctx context.Context, opts *options, fn func(*service.ReaderService) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if database.MigrateOnStartup(cfg) {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}
	return fn(service.NewReaderService(repository.NewReaderRepository(db)))
}
