package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/google/uuid"
	"github.com/grubsnap/identity/idtoken"
	"github.com/grubsnap/identity/internal/config"
	"github.com/grubsnap/identity/internal/metrics"
	"github.com/grubsnap/identity/jwks"
	"github.com/grubsnap/identity/notify"
	"github.com/grubsnap/identity/server"
	"github.com/grubsnap/identity/signup"
	"github.com/grubsnap/identity/signup/sessionrepo"
	"github.com/grubsnap/identity/social"
	"github.com/grubsnap/identity/token"
	"github.com/grubsnap/identity/token/keys"
	"github.com/grubsnap/identity/users/repofake"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	logger := newLogger(c)
	displayAppname(c.GetAppName())

	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("metrics.Register: %w", err)
	}

	srv, err := buildServer(c, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildServer wires the credential-issuance core: session store, user store,
// notifier, JWKS cache, token verifier, and the credential issuer.
func buildServer(c config.Config, logger zerolog.Logger) (*server.Server, error) {
	signupCfg := signup.Config{
		CodeLength:  c.GetOTPLength(),
		TTL:         c.GetSessionTTL(),
		MaxAttempts: c.GetMaxAttempts(),
		MaxResends:  c.GetMaxResends(),
		DebugCodes:  c.GetDebugCodes(),
	}

	userRepo := repofake.NewFakeUserRepo()
	sessionRepo := sessionrepo.New(signupCfg.TTL)

	signupService, err := signup.NewService(
		signup.Repos{Sessions: sessionRepo, Users: userRepo},
		newNotifier(c, logger),
		signupCfg,
		signup.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("signup.NewService: %w", err)
	}

	providers := idtoken.DefaultProviders()
	keyCache := jwks.NewCache(jwks.NewHTTPFetcher(nil), idtoken.Endpoints(providers))
	verifier := idtoken.NewVerifier(keyCache, providers)

	socialService, err := social.NewService(verifier, userRepo, map[string]string{
		idtoken.ProviderGoogle: c.GetGoogleClientID(),
		idtoken.ProviderApple:  c.GetAppleClientID(),
	}, social.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("social.NewService: %w", err)
	}

	issuer, err := newIssuer(c)
	if err != nil {
		return nil, err
	}

	return server.New(c, server.Services{
		Signup: signupService,
		Social: socialService,
		Issuer: issuer,
	}, logger)
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func newNotifier(c config.Config, logger zerolog.Logger) notify.Sender {
	if c.GetSmtpAccount() == "" {
		logger.Warn().Msg("no SMTP account configured, codes go to the log")
		return notify.NewLogSender(logger)
	}
	return notify.NewSMTPSender(c.GetSmtpHost(), c.GetSmtpPort(), c.GetSmtpFrom(), c.GetSmtpAccount(), c.GetSmtpPassword())
}

func newIssuer(c config.Config) (*token.Issuer, error) {
	var keyPair *keys.KeyPair
	var err error

	if pem := c.GetSigningKeyPEM(); pem != "" {
		keyPair, err = keys.LoadKeyPairFromPEM("primary", pem)
	} else {
		// Ephemeral key: fine for DEV, restarts invalidate issued tokens.
		keyPair, err = keys.GenerateRSAKeyPair(uuid.New().String(), 2048)
	}
	if err != nil {
		return nil, fmt.Errorf("loading signing key: %w", err)
	}

	return token.NewIssuer(keyPair, c.GetTokenIssuer())
}

func listenAndServe(httpServer *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
