package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"toolshare-backend/internal/config"
	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/repository"
	"toolshare-backend/internal/repository/postgres"
	"toolshare-backend/internal/security"
	"toolshare-backend/internal/service"
	"toolshare-backend/internal/utils"
)

type seedUser struct {
	name, email, password string
	role                  domain.UserRole
}

type seedTool struct {
	owner                       int // index into users
	name, description, category string
	rate                        string
}

type seedReservation struct {
	tool, renter int // indexes into tools and users
	start, end   string
	status       domain.ReservationStatus
}

type seedReview struct {
	reservation int // index into reservations
	rating      int
	comment     string
}

var users = []seedUser{
	{"Admin User", "admin@toolshare.com", "admin123", domain.UserRoleAdmin},
	{"John Doe", "john@example.com", "pass123", domain.UserRoleUser},
	{"Jane Smith", "jane@example.com", "pass123", domain.UserRoleUser},
	{"Bob Builder", "bob@example.com", "pass123", domain.UserRoleUser},
	{"Alice Wonderland", "alice@example.com", "pass123", domain.UserRoleUser},
	{"Charlie Brown", "charlie@example.com", "pass123", domain.UserRoleUser},
	{"David Tenant", "david@example.com", "pass123", domain.UserRoleUser},
}

var tools = []seedTool{
	{1, "Makita Drill", "Cordless drill 18V", "Power Tools", "15.00"},
	{1, "Hammer", "Heavy duty hammer", "Hand Tools", "5.00"},
	{2, "Lawn Mower", "Electric lawn mower", "Gardening", "25.00"},
	{2, "Rake", "Garden rake", "Gardening", "5.00"},
	{3, "Ladder", "Extension ladder 5m", "Construction", "10.00"},
	{3, "Paint Sprayer", "Airless paint sprayer", "Painting", "30.00"},
	{4, "Tripod", "Camera tripod", "Photography", "8.00"},
	{4, "Camera Lens", "50mm lens", "Photography", "20.00"},
	{5, "Circular Saw", "1800W saw", "Power Tools", "18.00"},
	{5, "Jigsaw", "Electric jigsaw", "Power Tools", "12.00"},
}

var reservations = []seedReservation{
	{0, 2, "2023-11-01", "2023-11-03", domain.ReservationStatusCompleted},
	{2, 1, "2023-11-05", "2023-11-05", domain.ReservationStatusCompleted},
	{5, 1, "2023-11-10", "2023-11-12", domain.ReservationStatusCompleted},
	{0, 3, "2023-11-15", "2023-11-16", domain.ReservationStatusApproved},
	{4, 2, "2023-11-20", "2023-11-20", domain.ReservationStatusPending},
	{1, 4, "2023-11-22", "2023-11-23", domain.ReservationStatusCompleted},
	{6, 1, "2023-11-25", "2023-11-26", domain.ReservationStatusCompleted},
	{7, 3, "2023-11-28", "2023-11-30", domain.ReservationStatusCompleted},
	{8, 2, "2023-12-01", "2023-12-02", domain.ReservationStatusCompleted},
	{9, 4, "2023-12-05", "2023-12-06", domain.ReservationStatusApproved},
}

var reviews = []seedReview{
	{0, 5, "Great drill, worked perfectly."},
	{1, 4, "Good mower but battery life short."},
	{2, 5, "Paint sprayer saved me days of work!"},
	{5, 5, "Solid hammer."},
	{6, 4, "Tripod was sturdy."},
	{7, 5, "Lens in perfect condition."},
	{8, 4, "Saw cut well."},
	{0, 5, "Rented again, all good."},
	{3, 5, "Good interaction."},
	{6, 5, "Amazing tool for the price."},
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withTokens := flag.Bool("tokens", true, "Print an access token for every demo user")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("Seeding needs the postgres driver, got %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	logger.Info("Applying schema")
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	store := postgres.NewStore(db)

	owners, err := store.Users().ListToolOwnerIDs(ctx)
	if err != nil {
		log.Fatalf("Failed to inspect database: %v", err)
	}
	if len(owners) > 0 {
		logger.Info("Database already has tools, skipping demo data")
		return
	}

	created, err := seed(ctx, store)
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	n, err := service.NewReputationService(store).ReconcileAll(ctx)
	if err != nil {
		log.Fatalf("Failed to compute trust scores: %v", err)
	}
	logger.Info("Demo data loaded", "users", len(created), "tools", len(tools), "reservations", len(reservations), "reviews", len(reviews), "owners_scored", n)

	if *withTokens {
		tm := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
		for _, u := range created {
			roles := []string{security.RoleUser}
			if u.IsAdmin() {
				roles = append(roles, security.RoleAdmin)
			}
			token, err := tm.GenerateAccessToken(u.ID, u.Email, roles)
			if err != nil {
				log.Fatalf("Failed to sign token: %v", err)
			}
			fmt.Printf("%-20s id=%-3d %s\n", u.Email, u.ID, token)
		}
	}
}

// seed inserts the demo rows in one transaction.
func seed(ctx context.Context, store repository.TxManager) ([]*domain.User, error) {
	var created []*domain.User
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		created = created[:0]
		for _, su := range users {
			hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u := &domain.User{Name: su.name, Email: su.email, PasswordHash: string(hash), Role: su.role}
			if err := tx.Users().Create(ctx, u); err != nil {
				return err
			}
			created = append(created, u)
		}

		toolRows := make([]*domain.Tool, 0, len(tools))
		for _, st := range tools {
			t := &domain.Tool{
				OwnerID:     created[st.owner].ID,
				Name:        st.name,
				Description: st.description,
				Category:    st.category,
				DailyRate:   decimal.RequireFromString(st.rate),
				Status:      domain.ToolStatusAvailable,
			}
			if err := tx.Tools().Create(ctx, t); err != nil {
				return err
			}
			toolRows = append(toolRows, t)
		}

		resRows := make([]*domain.Reservation, 0, len(reservations))
		for _, sr := range reservations {
			start, err := domain.ParseDate(sr.start)
			if err != nil {
				return err
			}
			end, err := domain.ParseDate(sr.end)
			if err != nil {
				return err
			}
			tool := toolRows[sr.tool]
			price, err := utils.CalculateRentalPrice(tool.DailyRate, start, end)
			if err != nil {
				return err
			}
			r := &domain.Reservation{
				ToolID:     tool.ID,
				RenterID:   created[sr.renter].ID,
				StartDate:  start,
				EndDate:    end,
				TotalPrice: price,
				Status:     sr.status,
			}
			if err := tx.Reservations().Create(ctx, r); err != nil {
				return err
			}
			resRows = append(resRows, r)
		}

		for _, sv := range reviews {
			if err := tx.Reviews().Create(ctx, &domain.Review{
				ReservationID: resRows[sv.reservation].ID,
				Rating:        sv.rating,
				Comment:       sv.comment,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}
