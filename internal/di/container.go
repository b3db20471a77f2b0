// Package di wires the emulator's modules together. Trimmed from the
// teacher's reflect-based service registry (internal/di's old Container) down
// to a plain struct: the emulator's dependency graph is small and linear
// enough that a generic registry bought nothing but indirection.
package di

import (
	"time"

	"firestore-emulator/internal/config"
	"firestore-emulator/internal/firestore/adapter/grpc"
	"firestore-emulator/internal/firestore/store"
	firestoreusecase "firestore-emulator/internal/firestore/usecase"
	identitytoolkithttp "firestore-emulator/internal/identitytoolkit/adapter/http"
	"firestore-emulator/internal/identitytoolkit/security"
	"firestore-emulator/internal/identitytoolkit/tokencache"
	identitytoolkitusecase "firestore-emulator/internal/identitytoolkit/usecase"
	"firestore-emulator/internal/shared/eventbus"
	"firestore-emulator/internal/shared/logger"
)

// tokenTTL is how long an Identity Toolkit ID token stays valid. The real
// service uses an hour; there is no refresh-token flow here so accounts
// simply sign in again once it lapses.
const tokenTTL = time.Hour

// Container holds every long-lived instance the two transports share.
type Container struct {
	Config *config.Config
	Logger logger.Logger

	Store           *store.Store
	FirestoreSvc    *firestoreusecase.Service
	FirestoreGRPC   *grpc.Server
	IdentityToolkit *identitytoolkitusecase.AuthService
	IdentityRouter  *identitytoolkithttp.Handler
}

// NewContainer builds the full dependency graph from cfg.
func NewContainer(cfg *config.Config) *Container {
	log := logger.New()

	st := store.New()
	firestoreSvc := firestoreusecase.NewService(st, log)
	firestoreGRPC := grpc.NewServer(firestoreSvc, log, cfg)

	tokens := security.NewJWTIssuer(jwtSecret(cfg), tokenTTL)
	if cfg.Redis.Enabled() {
		if cache, err := tokencache.NewRedisCache(cfg.Redis.URL); err != nil {
			log.Warnf("REDIS_URL set but could not be parsed, falling back to in-memory token cache: %v", err)
		} else {
			tokens = tokens.WithCache(cache)
		}
		if notifier, err := eventbus.NewRedisNotifier(cfg.Redis.URL); err != nil {
			log.Warnf("REDIS_URL set but could not be parsed, document-change events stay local: %v", err)
		} else {
			firestoreSvc.Bus().SetNotifier(notifier)
		}
	}
	identitySvc := identitytoolkitusecase.NewAuthService(tokens)
	identityRouter := identitytoolkithttp.NewHandler(identitySvc, log)

	return &Container{
		Config:          cfg,
		Logger:          log,
		Store:           st,
		FirestoreSvc:    firestoreSvc,
		FirestoreGRPC:   firestoreGRPC,
		IdentityToolkit: identitySvc,
		IdentityRouter:  identityRouter,
	}
}

// jwtSecret derives the signing key from the project ID when no dedicated
// secret is configured. The emulator has no real secret-management surface;
// this only needs to be stable for the lifetime of one process.
func jwtSecret(cfg *config.Config) string {
	return "firestore-emulator-" + cfg.ProjectID
}
