package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsatony/go-stache"
)

// storeConfig holds the storage flags shared by the store subcommands
type storeConfig struct {
	driver string
	dsn    string
}

// storedTemplateRow is the JSON form of a listed template
type storedTemplateRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at"`
}

// openStorage opens a storage backend, requiring a DSN for every driver
// except memory.
func openStorage(driver, dsn string) (stache.TemplateStorage, error) {
	if dsn == "" && driver != stache.StorageDriverNameMemory {
		return nil, failf(ExitCodeUsageError, ErrMsgMissingDSN, nil)
	}
	storage, err := stache.OpenStorage(driver, dsn)
	if err != nil {
		return nil, failf(ExitCodeStorageError, ErrMsgOpenStorageFailed, err)
	}
	return storage, nil
}

func newStoreCmd(cli *cliContext) *cobra.Command {
	cfg := &storeConfig{}

	cmd := &cobra.Command{
		Use:   CmdNameStore,
		Short: StoreShort,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.driver, FlagStore, FlagDefaultStore, "storage driver: memory, sqlite, postgres")
	flags.StringVar(&cfg.dsn, FlagDSN, "", "storage connection string")

	cmd.AddCommand(
		newPutCmd(cli, cfg),
		newGetCmd(cli, cfg),
		newListCmd(cli, cfg),
		newDeleteCmd(cli, cfg),
	)
	return cmd
}

// withStorage opens the configured storage for the duration of fn.
func withStorage(cfg *storeConfig, fn func(stache.TemplateStorage) error) error {
	storage, err := openStorage(cfg.driver, cfg.dsn)
	if err != nil {
		return err
	}
	defer storage.Close()
	return fn(storage)
}

func newPutCmd(cli *cliContext, cfg *storeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   CmdNamePut + " NAME FILE",
		Short: PutShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(args[1], cli.stdin)
			if err != nil {
				return failf(ExitCodeInputError, ErrMsgReadFileFailed, err)
			}

			return withStorage(cfg, func(storage stache.TemplateStorage) error {
				tmpl := &stache.StoredTemplate{Name: args[0], Source: string(source)}
				if err := storage.Save(cmd.Context(), tmpl); err != nil {
					return failf(ExitCodeStorageError, ErrMsgStorageFailed, err)
				}
				fmt.Fprintf(cli.stdout, FmtStoredSaved, tmpl.Name, tmpl.Version)
				return nil
			})
		},
	}
}

func newGetCmd(cli *cliContext, cfg *storeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameGet + " NAME",
		Short: GetShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cfg, func(storage stache.TemplateStorage) error {
				tmpl, err := storage.Get(cmd.Context(), args[0])
				if err != nil {
					return failf(ExitCodeStorageError, ErrMsgStorageFailed, err)
				}
				_, err = fmt.Fprint(cli.stdout, tmpl.Source)
				return err
			})
		},
	}
}

func newListCmd(cli *cliContext, cfg *storeConfig) *cobra.Command {
	var (
		prefix string
		format string
	)

	cmd := &cobra.Command{
		Use:   CmdNameList,
		Short: ListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != OutputFormatText && format != OutputFormatJSON {
				return failf(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
			}

			return withStorage(cfg, func(storage stache.TemplateStorage) error {
				templates, err := storage.List(cmd.Context(), &stache.TemplateQuery{NamePrefix: prefix})
				if err != nil {
					return failf(ExitCodeStorageError, ErrMsgStorageFailed, err)
				}

				rows := make([]storedTemplateRow, 0, len(templates))
				for _, tmpl := range templates {
					rows = append(rows, storedTemplateRow{
						ID:        tmpl.ID,
						Name:      tmpl.Name,
						Version:   tmpl.Version,
						UpdatedAt: tmpl.UpdatedAt.UTC().Format(TimestampFormat),
					})
				}

				if format == OutputFormatJSON {
					return writeJSON(cli.stdout, rows)
				}
				for _, row := range rows {
					fmt.Fprintf(cli.stdout, FmtStoredListRow, row.Name, row.Version, row.UpdatedAt)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, FlagPrefix, "", "only list names with this prefix")
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "output format: text, json")
	return cmd
}

func newDeleteCmd(cli *cliContext, cfg *storeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameDelete + " NAME",
		Short: DeleteShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cfg, func(storage stache.TemplateStorage) error {
				if err := storage.Delete(cmd.Context(), args[0]); err != nil {
					return failf(ExitCodeStorageError, ErrMsgStorageFailed, err)
				}
				fmt.Fprintf(cli.stdout, FmtStoredDeleted, args[0])
				return nil
			})
		},
	}
}
