package internal

import (
	"cyberslate/esports-api/internal/events"
	"cyberslate/esports-api/internal/repo"
	"cyberslate/esports-api/internal/revocation"
	"cyberslate/esports-api/internal/service"
	"cyberslate/esports-api/internal/verification"
	"cyberslate/esports-api/pkg/security"
	"cyberslate/esports-api/pkg/token"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps is everything a handler may need. It is built once at startup and
// passed explicitly to each handler.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Argon     *security.ArgonHash
	Users     *repo.UserRepo
	Commands  *repo.CommandRepo
	Verify    *verification.Store
	Revoked   *revocation.Registry
	Tokens    *token.Issuer
	Validator *token.Validator
	Mailer    service.Mailer
	Events    events.Publisher
}

// NewDeps wires the stores around db and rdb
func NewDeps(db *gorm.DB, rdb *redis.Client, argon *security.ArgonHash, tokens *token.Issuer, secret string, mailer service.Mailer, pub events.Publisher) *Deps {
	users := repo.NewUserRepo(db)
	revoked := revocation.NewRegistry(rdb)

	if pub == nil {
		pub = events.NopPublisher{}
	}

	return &Deps{
		DB:        db,
		Redis:     rdb,
		Argon:     argon,
		Users:     users,
		Commands:  repo.NewCommandRepo(db),
		Verify:    verification.NewStore(rdb),
		Revoked:   revoked,
		Tokens:    tokens,
		Validator: token.NewValidator(secret, users, revoked),
		Mailer:    mailer,
		Events:    pub,
	}
}
