//go:build wireinject
// +build wireinject

package main

import (
	"religious_services_backend/internal/app"
	"religious_services_backend/internal/auth"
	"religious_services_backend/internal/badge"
	"religious_services_backend/internal/config"
	"religious_services_backend/internal/content"
	"religious_services_backend/internal/filestorage"
	"religious_services_backend/internal/firebase"
	"religious_services_backend/internal/jobs"
	"religious_services_backend/internal/notification"
	"religious_services_backend/internal/platform/cache"
	es "religious_services_backend/internal/platform/elasticsearch"
	"religious_services_backend/internal/platform/events"
	"religious_services_backend/internal/question"
	"religious_services_backend/internal/shared"
	"religious_services_backend/internal/synagogue"
	"religious_services_backend/internal/user"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	cache.NewRedisClient,
	provideCacheHelper,
	es.NewClient,
	events.NewBus,
	firebase.NewFirebaseService,
	filestorage.NewFileStorageService,
)

var authSet = wire.NewSet(
	auth.NewJWTService,
	wire.Bind(new(shared.TokenService), new(*auth.JWTService)),
	auth.DefaultBlocklistConfig,
	auth.NewInMemoryBlocklistService,
	wire.Bind(new(shared.TokenBlocklist), new(*auth.InMemoryBlocklistService)),
	user.NewGORMRepository,
	user.NewService,
	wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
	wire.Bind(new(shared.UserLookup), new(*user.ServiceImplementation)),
	wire.Bind(new(auth.AccountService), new(*user.ServiceImplementation)),
	auth.NewHandler,
	user.NewHandler,
)

var domainSet = wire.NewSet(
	question.NewGORMRepository,
	notification.NewGORMRepository,
	provideBadgeService,
	badge.NewHandler,
	provideNotificationService,
	wire.Bind(new(jobs.NotificationPurger), new(notification.Service)),
	notification.NewHandler,
	provideQuestionIndexer,
	provideQuestionService,
	wire.Bind(new(question.Service), new(*question.ServiceImplementation)),
	question.NewHandler,
	synagogue.NewGORMRepository,
	synagogue.NewService,
	synagogue.NewHandler,
	content.NewGORMRepository,
	wire.Bind(new(content.ImageStore), new(*filestorage.FileStorageService)),
	content.NewService,
	content.NewHandler,
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		platformSet,
		authSet,
		domainSet,
		jobs.NewNotificationCleanupJob,
		provideDispatcher,
		wire.Struct(new(app.Handlers), "*"),
		app.NewServer,
	)
	return nil, nil, nil
}
