package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	"github.com/ikkim/bizdir-backend/internal/db"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	verbose      bool
	ownerEmail   string
	exportStatus string
	outputPath   string
)

var rootCmd = &cobra.Command{
	Use:           "dirctl",
	Short:         "Business directory maintenance tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// migrateCmd creates the schema and seeds categories
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations and seed the canonical categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()

		categories, err := config.LoadCategorySeed(cfg.Directory.CategoriesFile)
		if err != nil {
			return err
		}
		return db.Migrate(categories)
	},
}

// importCmd loads a spreadsheet of listings as pending submissions
var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import listings from a spreadsheet as pending submissions",
	Long: `Import listings from an .xlsx file in the export layout.

Rows are validated like web submissions. Invalid rows are skipped and
reported; valid rows are created as pending listings owned by --owner.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// exportCmd writes listings to a spreadsheet
var exportCmd = &cobra.Command{
	Use:   "export [file.xlsx]",
	Short: "Export listings to a spreadsheet",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

// promoteCmd grants the admin role to an existing account
var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant administrator access to an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromote,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	importCmd.Flags().StringVar(&ownerEmail, "owner", "", "email of the account that will own imported listings")
	_ = importCmd.MarkFlagRequired("owner")

	exportCmd.Flags().StringVar(&exportStatus, "status", string(directory.StatusApproved), "listing status to export (pending, approved, rejected, or all)")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "listings.xlsx", "output file")

	rootCmd.AddCommand(migrateCmd, importCmd, exportCmd, promoteCmd)
}

func setup() (*config.Config, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	logger.Initialize(logger.Config{Level: level, Format: "console", EnableColor: true})

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findUser(users repository.UserRepository, email string) (*model.User, error) {
	user, err := users.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no account with email %s", email)
	}
	return user, err
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	gdb := db.GetDB()
	users := repository.NewUserRepository(gdb)
	owner, err := findUser(users, ownerEmail)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := service.ReadListingsXLSX(f)
	if err != nil {
		return err
	}

	listings := service.NewListingService(
		repository.NewListingRepository(gdb),
		repository.NewCategoryRepository(gdb),
		service.NewListingCache(nil, 0),
		cfg.Directory.PlaceholderImage,
	)
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	result, err := listings.ImportListings(ctx, owner.ID, rows)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created %d pending listings\n", result.Created)
	for _, skipped := range result.Skipped {
		fmt.Fprintf(out, "  row %d skipped: %s\n", skipped.Row, skipped.Error)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if _, err := setup(); err != nil {
		return err
	}
	defer db.Close()

	gdb := db.GetDB()
	admin := service.NewAdminService(
		repository.NewListingRepository(gdb),
		repository.NewUserRepository(gdb),
		nil,
		service.NewListingCache(nil, 0),
	)

	status := directory.Status(exportStatus)
	if exportStatus == directory.All {
		status = ""
	}
	path := outputPath
	if len(args) == 1 {
		path = args[0]
	}

	// the CLI runs with database access, so it acts as a system administrator
	data, err := admin.ExportListings(directory.Actor{Role: directory.RoleAdmin}, status)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runPromote(cmd *cobra.Command, args []string) error {
	if _, err := setup(); err != nil {
		return err
	}
	defer db.Close()

	users := repository.NewUserRepository(db.GetDB())
	user, err := findUser(users, args[0])
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already an administrator\n", user.Email)
		return nil
	}

	user.Role = model.RoleAdmin
	if err := users.Update(user); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now an administrator\n", user.Email)
	return nil
}
