package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	coredatabase "github.com/m3rciful/dopiumbot/core/database"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/app"
)

// openRepo connects with the config's database section and migrates it.
func openRepo(cmd *cobra.Command) (*admin.Repo, func() error, error) {
	path, _ := cmd.Flags().GetString("config")
	dbCfg, err := app.LoadDatabase(path)
	if err != nil {
		return nil, nil, err
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	return admin.NewRepo(db), db.Close, nil
}

func connect(cfg coredatabase.Config) (*sqlx.DB, error) {
	db, err := coredatabase.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := coredatabase.RunMigrations(db, cfg); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user_id> [username] [full_name]",
		Short: "Add or reactivate an admin",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a := admin.Admin{UserID: id}
			if len(args) > 1 {
				a.Username = args[1]
			}
			if len(args) > 2 {
				a.FullName = args[2]
			}
			repo, closeDB, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			if err := repo.Add(cmd.Context(), a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %d added\n", id)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user_id>",
		Short: "Deactivate an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			repo, closeDB, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			if err := repo.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %d removed\n", id)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			admins, err := repo.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no admins")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER_ID\tUSERNAME\tNAME\tACTIVE\tCREATED")
			for _, a := range admins {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", a.UserID, a.Username, a.FullName, a.Active, a.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated admins")
	return cmd
}
