package electionservice

import (
	"log/slog"

	httpadapter "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/adapters/http"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/adapters/memory"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/application/commands"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/application/queries"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/application/workers"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Elections ports.ElectionRepository
	Votes     ports.VoteScanner
	Admins    ports.AdminRegistry
	Outbox    ports.OutboxWriter
	OutboxLog ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	lifecycleUseCase := commands.LifecycleUseCase{
		Elections: deps.Elections,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	registryUseCase := commands.RegistryUseCase{
		Lifecycle: lifecycleUseCase,
		Admins:    deps.Admins,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	configUseCase := queries.ConfigUseCase{
		Elections: deps.Elections,
		Votes:     deps.Votes,
		Admins:    deps.Admins,
	}
	return Module{
		Handler: httpadapter.Handler{
			Registry:  registryUseCase,
			Lifecycle: lifecycleUseCase,
			Config:    configUseCase,
			Logger:    deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxLog,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Election, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Elections: store,
		Votes:     store,
		Admins:    store,
		Outbox:    store,
		OutboxLog: store,
		Publisher: publisher,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
