// Package app wires the service together: repositories, services, the
// message router with its processors, the outbox forwarder, and the HTTP
// server, all run under one errgroup.
package app

import (
	"context"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tickets/internal/application/services"
	"tickets/internal/config"
	"tickets/internal/domain/pricing"
	"tickets/internal/infrastructure/clients"
	"tickets/internal/infrastructure/event_publisher"
	"tickets/internal/interfaces/commands"
	"tickets/internal/interfaces/events"
	"tickets/internal/interfaces/http"
	"tickets/internal/outbox"
	"tickets/internal/repository"
)

// eventTopics lists every public event topic, for the archive consumer.
var eventTopics = []string{
	"events.InvoicePaid_v1",
	"events.InvoiceRefunded_v1",
	"events.TicketAssigned_v1",
}

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger
	router          *message.Router
	srv             *http.Server
	forwarder       *outbox.Forwarder
	db              *sqlx.DB
	listenAddr      string
}

func NewApp(
	cfg config.Config,
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
) (*App, error) {
	trGetter := trmsqlx.DefaultCtxGetter
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))

	usersRepo := repository.NewUsersRepo(db, trGetter)
	ticketsRepo := repository.NewTicketsRepo(db, trGetter)
	invoicesRepo := repository.NewInvoicesRepo(db, trGetter)
	childrenRepo := repository.NewChildrenRepo(db, trGetter)
	eventsRepo := repository.NewEventsRepo(db)

	gateway := clients.NewStripeGateway(cfg.StripeSecretKey)
	mailClient := clients.NewMailClient(
		cfg.SMTPHost, cfg.SMTPPort,
		cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.MailFrom, cfg.MailReplyTo,
	)
	slackClient := clients.NewSlackClient(cfg.SlackWebhookURL, nil)

	eventBus := events.NewTransactionalBus(trGetter, watermillLogger)

	ordersService := services.NewOrdersService(
		invoicesRepo, ticketsRepo, usersRepo,
		gateway, eventBus, trManager, cfg.EventName,
	)
	ticketsService := services.NewTicketsService(
		ticketsRepo, invoicesRepo, usersRepo, eventBus, trManager,
	)
	childrenService := services.NewChildrenService(
		childrenRepo, invoicesRepo, usersRepo, trManager, cfg.ChildrenCapacity,
	)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(events.MetricsMiddleware)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)
	// skip marshalling errors before retrying
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)

	marshaler := cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	}

	eventProcessor, err := events.NewEventProcessor(router, redisClient, marshaler, watermillLogger)
	if err != nil {
		return nil, err
	}
	handlers := events.NewHandlers(mailClient, slackClient, cfg.EventName, cfg.DomainURL)
	if err := eventProcessor.AddHandlers(handlers.All()...); err != nil {
		return nil, err
	}

	commandProcessor, err := commands.NewCommandProcessor(router, redisClient, marshaler, watermillLogger)
	if err != nil {
		return nil, err
	}
	commandHandler := commands.NewHandler(ordersService)
	if err := commandProcessor.AddHandlers(commandHandler.All()...); err != nil {
		return nil, err
	}

	if err := events.RegisterEventArchive(router, redisClient, eventsRepo, watermillLogger, eventTopics); err != nil {
		return nil, err
	}

	commandPublisher, err := event_publisher.NewRedisPublisher(watermillLogger, redisClient)
	if err != nil {
		return nil, err
	}
	commandBus, err := commands.NewBus(
		event_publisher.CorrelationPublisherDecorator{Publisher: commandPublisher},
		watermillLogger,
	)
	if err != nil {
		return nil, err
	}

	fwd, err := outbox.NewForwarder(db, redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}

	srv := http.NewServer(
		echo.New(),
		ordersService,
		ticketsService,
		childrenService,
		usersRepo,
		commandBus,
		router.IsRunning,
	)

	return &App{
		watermillLogger: watermillLogger,
		logger:          zerolog.New(os.Stdout),
		router:          router,
		srv:             srv,
		forwarder:       fwd,
		db:              db,
		listenAddr:      cfg.ListenAddr,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if err := pricing.ValidateTable(); err != nil {
		return err
	}
	if err := repository.InitializeDBSchema(a.db); err != nil {
		return err
	}

	a.forwarder.Run(ctx)
	a.logger.Info().Msg("outbox forwarder is running")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Msg("starting router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start(a.listenAddr)
	})

	g.Go(func() error {
		<-ctx.Done()

		err := a.srv.Stop(context.Background())
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}
		return err
	})

	return g.Wait()
}
