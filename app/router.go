// Package app wires the HTTP routes to their handlers
package app

import (
	"context"
	"cyberslate/esports-api/app/command"
	"cyberslate/esports-api/app/root"
	"cyberslate/esports-api/app/user"
	"cyberslate/esports-api/config"
	"cyberslate/esports-api/db"
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/events"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/internal/service"
	"cyberslate/esports-api/pkg/middleware"
	"cyberslate/esports-api/pkg/security"
	"cyberslate/esports-api/pkg/token"
	"cyberslate/esports-api/validators"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type App struct {
	Router *gin.Engine
	Deps   *internal.Deps

	closers []func()
}

// Options tunes the engine. Zero values disable the feature they guard.
type Options struct {
	CORSOrigins []string
	RateLimit   float64
	MaxBodySize int64
	CacheTTL    time.Duration
}

// NewRouter builds the whole app from the loaded config
func NewRouter() (*App, error) {
	makeLogger(viper.GetString("app.log_level"))

	a := &App{}

	gdb, err := db.New(viper.GetString("db.driver"), viper.GetString("db.dsn"))
	if err != nil {
		return nil, err
	}

	rdb, err := db.NewRedis(context.Background(), viper.GetString("redis.url"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { rdb.Close() })

	smtp := service.NewSMTPMailer(service.SMTPConfig{
		Host:     viper.GetString("mail.host"),
		Port:     viper.GetInt("mail.port"),
		Username: viper.GetString("mail.username"),
		Password: viper.GetString("mail.password"),
		From:     viper.GetString("mail.from"),
	})

	var mailer service.Mailer = smtp

	if viper.GetBool("mail.async") {
		opt, err := asynq.ParseRedisURI(viper.GetString("redis.url"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url for the mail queue, %w", err)
		}

		client := asynq.NewClient(opt)
		a.closers = append(a.closers, func() { client.Close() })

		srv, err := service.StartMailWorker(opt, smtp, viper.GetInt("mail.workers"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, srv.Shutdown)

		mailer = service.NewQueueMailer(client)
	}

	var pub events.Publisher = events.NopPublisher{}
	if viper.GetBool("events.enabled") {
		pub = events.NewKafkaPublisher(config.Brokers(), viper.GetString("events.topic"))
		a.closers = append(a.closers, func() { pub.Close() })
	}

	secret := viper.GetString("jwt.secret")
	issuer := token.NewIssuer(secret, token.WithTTLs(
		viper.GetDuration("jwt.access_ttl"),
		viper.GetDuration("jwt.refresh_ttl"),
	))

	a.Deps = internal.NewDeps(gdb, rdb, security.New(), issuer, secret, mailer, pub)

	cleanup := service.NewAccountCleanup(a.Deps.Users, viper.GetDuration("cleanup.unverified_after"))
	cron, err := cleanup.Schedule(viper.GetString("cleanup.schedule"))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule account cleanup, %w", err)
	}
	a.closers = append(a.closers, func() { cron.Stop() })

	a.Router = NewEngine(a.Deps, Options{
		CORSOrigins: config.CORSOrigins(),
		RateLimit:   viper.GetFloat64("security.rate_limit"),
		MaxBodySize: viper.GetInt64("security.max_body_size"),
		CacheTTL:    10 * time.Second,
	})

	return a, nil
}

// Close stops background workers and releases connections, newest first
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// NewEngine registers every route on a fresh gin engine
func NewEngine(d *internal.Deps, o Options) *gin.Engine {
	validators.Register()

	router := gin.New()

	if len(o.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.Use(
		middleware.NewRequestIDMiddleware(),
		middleware.NewRecoveryMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetInt64("userID"); v != 0 {
					fields = append(fields, zap.Int64("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	jwt := middleware.NewJWTMiddleware(d.Validator)
	players := middleware.RequireRole(model.RolePlayer, model.RoleAdmin)
	admins := middleware.RequireRole(model.RoleAdmin)

	limits := []gin.HandlerFunc{}
	if o.RateLimit > 0 {
		limits = append(limits, middleware.NewRateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: o.RateLimit,
			Burst:             int(o.RateLimit * 2),
		}))
	}
	if o.MaxBodySize > 0 {
		limits = append(limits, middleware.BodySizeLimiter(o.MaxBodySize))
	}

	// HEAD /heartbeat		-> Used to check if the server is alive
	router.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d.Redis) })

	// GET /validate		-> Validates an access token
	router.GET("/validate", jwt, root.Validate)

	u := router.Group("/users", limits...)
	{
		// POST /users/register		-> Registers an inactive user and mails a code
		u.POST("/register", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /users/verify		-> Activates a user and returns a token pair
		u.POST("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /users/resend-code	-> Replaces and mails the pending code
		u.POST("/resend-code", func(c *gin.Context) { user.UserResendCode(c, d) })

		// POST /users/token		-> Logs in with a form and returns a token pair
		u.POST("/token", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /users/access-token	-> Trades a refresh token for an access token
		u.POST("/access-token", func(c *gin.Context) { user.UserAccessToken(c, d) })

		// POST /users/refresh-tokens	-> Rotates a refresh token
		u.POST("/refresh-tokens", func(c *gin.Context) { user.UserRefreshTokens(c, d) })

		// POST /users/revoke-tokens	-> Revokes a batch of refresh tokens
		u.POST("/revoke-tokens", func(c *gin.Context) { user.UserRevokeTokens(c, d) })

		// GET /users/me		-> Returns the authenticated user
		u.GET("/me", jwt, func(c *gin.Context) { user.UserFetch(c, d) })

		// POST /users/me/player	-> Upgrades a viewer to player
		u.POST("/me/player", jwt, func(c *gin.Context) { user.UserBecomePlayer(c, d) })

		// DELETE /users/:id		-> Deletes a user, admins only
		u.DELETE("/:id", jwt, admins, func(c *gin.Context) { user.UserDelete(c, d) })
	}

	store := persist.NewMemoryStore(time.Minute)

	cmds := router.Group("/commands", limits...)
	{
		// GET /commands		-> Searches teams with cursor pagination
		cmds.GET("", cacheFor(store, o.CacheTTL), func(c *gin.Context) { command.CommandSearch(c, d) })

		// GET /commands/:id		-> Returns an active team with its members
		cmds.GET("/:id", cacheFor(store, o.CacheTTL), func(c *gin.Context) { command.CommandFetch(c, d) })

		// POST /commands		-> Creates a team
		cmds.POST("", jwt, players, func(c *gin.Context) { command.CommandCreate(c, d) })

		// DELETE /commands/:id		-> Deletes a team, admin or creator only
		cmds.DELETE("/:id", jwt, func(c *gin.Context) { command.CommandDelete(c, d) })

		// POST /commands/:id/join	-> Joins a team with its password
		cmds.POST("/:id/join", jwt, players, func(c *gin.Context) { command.CommandJoin(c, d) })

		// POST /commands/leave		-> Leaves the current team
		cmds.POST("/leave", jwt, func(c *gin.Context) { command.CommandLeave(c, d) })
	}

	return router
}

// cacheFor caches GET responses by URI in store. A zero ttl disables caching.
func cacheFor(store persist.CacheStore, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return cache.CacheByRequestURI(store, ttl)
}

func makeLogger(level string) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
