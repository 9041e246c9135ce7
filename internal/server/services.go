package server

import (
	"marketplace/internal/auth"
	"marketplace/internal/booking"
	"marketplace/internal/catalog"
	"marketplace/internal/commission"
	"marketplace/internal/config"
	"marketplace/internal/coupon"
	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/invoice"
	"marketplace/internal/payment"
	"marketplace/internal/points"
	"marketplace/internal/settlement"
	"marketplace/internal/user"
	"marketplace/internal/wallet"
	"marketplace/internal/webhook"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Services is the wired service graph shared by the HTTP server, the
// scheduler and the CLI.
type Services struct {
	Tokens     *auth.TokenIssuer
	Users      user.Service
	Catalog    catalog.Manager
	Commission commission.Service
	Coupons    coupon.Service
	Points     points.Service
	Payments   payment.Service
	Wallets    wallet.Service
	Invoices   invoice.Service
	Settlement settlement.Service
	Bookings   booking.Service
	Webhooks   webhook.Service
}

func NewServices(cfg *config.Config, database *sqlx.DB, rdb *redis.Client, publisher events.Publisher, gateway payment.Gateway) *Services {
	txr := db.NewTransactor(database)

	paymentRepo := payment.NewRepository(database)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret)

	s := &Services{
		Tokens:     tokens,
		Users:      user.NewService(user.NewRepository(database), tokens),
		Catalog:    catalog.NewManager(catalog.NewRepository(database), cfg.Currency),
		Commission: commission.NewService(commission.NewRepository(database), cfg.DefaultTaxRate),
		Coupons:    coupon.NewService(coupon.NewRepository(database)),
		Points:     points.NewService(points.NewRepository(database)),
		Payments:   payment.NewService(paymentRepo, gateway),
	}
	s.Wallets = wallet.NewService(wallet.NewRepository(database, cfg.Currency), txr, s.Payments, publisher, cfg.Currency)
	s.Invoices = invoice.NewService(invoice.NewRepository(database), s.Commission)
	s.Settlement = settlement.NewService(settlement.NewRepository(database), txr, s.Wallets, s.Invoices, publisher)

	s.Bookings = booking.NewService(booking.Deps{
		Repo:       booking.NewRepository(database),
		Tx:         txr,
		Catalog:    s.Catalog,
		Commission: s.Commission,
		Coupons:    s.Coupons,
		Points:     s.Points,
		Wallets:    s.Wallets,
		Payments:   s.Payments,
		Invoices:   s.Invoices,
		Settlement: s.Settlement,
		Publisher:  publisher,
	}, booking.Options{
		Currency:      cfg.Currency,
		PointValue:    cfg.PointValue,
		PointsPerUnit: cfg.PointsPerUnit,
	})

	s.Webhooks = webhook.NewService(paymentRepo, txr, s.Bookings, s.Wallets,
		webhook.NewRedisDeduper(rdb, webhook.DedupeTTL), publisher)

	return s
}
