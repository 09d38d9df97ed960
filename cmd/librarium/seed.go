// cmd/librarium/seed.go
package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"librarium/internal/catalog"
	"librarium/internal/config"
	"librarium/internal/identity"
	"librarium/internal/middleware"
	"librarium/internal/postgres"
)

// seedBooks is a starter catalog for development environments.
var seedBooks = []catalog.BookInput{
	{Title: "Pride and Prejudice", Author: "Jane Austen", Price: 450, PublishedDate: "1813-01-28", ISBN: "9780141439518", Pages: 432, Genre: "romance"},
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Price: 550, PublishedDate: "1925-04-10", ISBN: "9780743273565", Pages: 180, Genre: "fiction"},
	{Title: "The Diary of a Young Girl", Author: "Anne Frank", Price: 600, PublishedDate: "1947-06-25", ISBN: "9780553296983", Pages: 283, Genre: "biography"},
	{Title: "The Hound of the Baskervilles", Author: "Arthur Conan Doyle", Price: 380, PublishedDate: "1902-04-01", ISBN: "9780451528018", Pages: 256, Genre: "mystery"},
	{Title: "A Brief History of Time", Author: "Stephen Hawking", Price: 820, PublishedDate: "1988-04-01", ISBN: "9780553380163", Pages: 212, Genre: "nonfiction"},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a starter catalog and a librarian account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := cmd.Context()

			db, err := postgres.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}

			tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
			identitySvc := identity.NewService(db, tokens, cfg.StaffSignupCode)
			catalogSvc := catalog.NewService(db)

			_, err = identitySvc.SignupStaff(ctx, identity.SignupInput{
				Username:    "librarian",
				Email:       "librarian@example.com",
				Password:    "librarian_dev_password",
				FirstName:   "Default",
				LastName:    "Librarian",
				Gender:      identity.GenderFemale,
				DateOfBirth: "1985-06-15",
			}, cfg.StaffSignupCode)
			if err != nil && !errors.Is(err, identity.ErrUsernameTaken) {
				return err
			}

			for _, input := range seedBooks {
				if _, err := catalogSvc.AddBook(ctx, input); err != nil {
					if errors.Is(err, catalog.ErrDuplicateISBN) {
						continue // already seeded
					}
					return err
				}
			}

			slog.Info("seed complete", "books", len(seedBooks))
			return nil
		},
	}
}
